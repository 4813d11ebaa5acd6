//go:build windows

// Package pointer enumerates pointing devices, gives each a stable identity
// and fans out their relative motion to subscribers.
package pointer

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	user32                      = windows.NewLazySystemDLL("user32.dll")
	procRegisterRawInputDevices = user32.NewProc("RegisterRawInputDevices")
	procGetRawInputData         = user32.NewProc("GetRawInputData")
	procGetRawInputDeviceInfoW  = user32.NewProc("GetRawInputDeviceInfoW")
	procGetRawInputDeviceList   = user32.NewProc("GetRawInputDeviceList")

	classSeq uint32
)

const (
	wmInput             = 0x00FF
	wmInputDeviceChange = 0x00FE
	wmDisplayChange     = 0x007E

	ridInput       = 0x10000003
	ridiDeviceName = 0x20000007
	ridiDeviceInfo = 0x2000000b
	rimTypeMouse   = 0

	ridevRemove    = 0x00000001
	ridevInputSink = 0x00000100
	ridevDevNotify = 0x00002000

	gidcArrival = 1
	gidcRemoval = 2

	mouseMoveAbsolute = 0x01

	hidUsagePageGeneric = 0x01
	hidUsageMouse       = 0x02
)

type rawInputDevice struct {
	UsagePage uint16
	Usage     uint16
	Flags     uint32
	Target    win.HWND
}

type rawInputHeader struct {
	Type   uint32
	Size   uint32
	Device uintptr
	WParam uintptr
}

type rawMouse struct {
	Flags            uint16
	_                uint16
	ButtonFlags      uint16
	ButtonData       uint16
	RawButtons       uint32
	LastX            int32
	LastY            int32
	ExtraInformation uint32
}

type rawInputDeviceList struct {
	Device uintptr
	Type   uint32
}

// ridDeviceInfo mirrors RID_DEVICE_INFO; only the type is read.
type ridDeviceInfo struct {
	CbSize uint32
	Type   uint32
	_      [24]byte
}

// rawInputSource receives WM_INPUT for every mouse through a hidden
// top-level window. Top-level is required to also get WM_DISPLAYCHANGE.
type rawInputSource struct {
	sink Sink
	hwnd win.HWND
	buf  []byte
}

// NewSource returns a Windows raw input source.
func NewSource() (Source, error) {
	return &rawInputSource{}, nil
}

// Run pumps window messages on a locked OS thread until ctx is done.
func (s *rawInputSource) Run(ctx context.Context, sink Sink) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.sink = sink
	hwnd, err := s.createWindow()
	if err != nil {
		return err
	}
	s.hwnd = hwnd

	if err := registerRawMouse(hwnd, ridevInputSink|ridevDevNotify); err != nil {
		win.DestroyWindow(hwnd)
		return err
	}
	s.enumerate()

	stop := context.AfterFunc(ctx, func() {
		win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	})
	defer stop()

	var msg win.MSG
	for {
		switch win.GetMessage(&msg, 0, 0, 0) {
		case 0:
			return ctx.Err()
		case -1:
			return fmt.Errorf("GetMessage failed: %w", syscall.GetLastError())
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

// createWindow registers a private class and creates the hidden window that
// receives raw input and display change messages.
func (s *rawInputSource) createWindow() (win.HWND, error) {
	name := fmt.Sprintf("DynaMouseRawInput%d", atomic.AddUint32(&classSeq, 1))
	className, err := syscall.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	hInstance := win.GetModuleHandle(nil)

	var wc win.WNDCLASSEX
	wc.CbSize = uint32(unsafe.Sizeof(wc))
	wc.LpfnWndProc = syscall.NewCallback(s.wndProc)
	wc.HInstance = hInstance
	wc.LpszClassName = className
	if atom := win.RegisterClassEx(&wc); atom == 0 {
		return 0, fmt.Errorf("RegisterClassEx failed: %w", syscall.GetLastError())
	}

	hwnd := win.CreateWindowEx(0, className, className, 0, 0, 0, 0, 0, 0, 0, hInstance, nil)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx failed: %w", syscall.GetLastError())
	}
	return hwnd, nil
}

// wndProc dispatches window messages to the sink.
func (s *rawInputSource) wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case wmInput:
		s.handleInput(lParam)
	case wmInputDeviceChange:
		switch wParam {
		case gidcArrival:
			if d, ok := describe(lParam); ok {
				s.sink.DeviceArrived(d)
			}
		case gidcRemoval:
			s.sink.DeviceRemoved(lParam)
		}
		return 0
	case wmDisplayChange:
		s.sink.DisplaysChanged()
	case win.WM_CLOSE:
		_ = registerRawMouse(0, ridevRemove)
		win.DestroyWindow(hwnd)
		return 0
	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// handleInput decodes a WM_INPUT payload and forwards relative motion.
func (s *rawInputSource) handleInput(lParam uintptr) {
	headerSize := uint32(unsafe.Sizeof(rawInputHeader{}))
	var size uint32
	procGetRawInputData.Call(lParam, ridInput, 0, uintptr(unsafe.Pointer(&size)), uintptr(headerSize))
	if size == 0 {
		return
	}
	if cap(s.buf) < int(size) {
		s.buf = make([]byte, size)
	}
	buf := s.buf[:size]
	r, _, _ := procGetRawInputData.Call(lParam, ridInput, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)), uintptr(headerSize))
	if uint32(r) != size {
		return
	}

	header := (*rawInputHeader)(unsafe.Pointer(&buf[0]))
	if header.Type != rimTypeMouse || int(headerSize)+int(unsafe.Sizeof(rawMouse{})) > len(buf) {
		return
	}
	mouse := (*rawMouse)(unsafe.Pointer(&buf[headerSize]))
	if mouse.Flags&mouseMoveAbsolute != 0 {
		return
	}
	if mouse.LastX == 0 && mouse.LastY == 0 {
		return
	}
	s.sink.Motion(header.Device, int(mouse.LastX), int(mouse.LastY))
}

// enumerate reports devices already connected when the source starts.
func (s *rawInputSource) enumerate() {
	entry := uint32(unsafe.Sizeof(rawInputDeviceList{}))
	var count uint32
	procGetRawInputDeviceList.Call(0, uintptr(unsafe.Pointer(&count)), uintptr(entry))
	if count == 0 {
		return
	}
	list := make([]rawInputDeviceList, count)
	r, _, _ := procGetRawInputDeviceList.Call(uintptr(unsafe.Pointer(&list[0])), uintptr(unsafe.Pointer(&count)), uintptr(entry))
	n := int32(r)
	if n <= 0 {
		return
	}
	for _, item := range list[:n] {
		if item.Type != rimTypeMouse {
			continue
		}
		if d, ok := describe(item.Device); ok {
			s.sink.DeviceArrived(d)
		}
	}
}

// registerRawMouse subscribes hwnd to generic mouse raw input with flags.
func registerRawMouse(hwnd win.HWND, flags uint32) error {
	dev := rawInputDevice{
		UsagePage: hidUsagePageGeneric,
		Usage:     hidUsageMouse,
		Flags:     flags,
		Target:    hwnd,
	}
	r, _, err := procRegisterRawInputDevices.Call(uintptr(unsafe.Pointer(&dev)), 1, unsafe.Sizeof(dev))
	if r == 0 {
		return fmt.Errorf("RegisterRawInputDevices failed: %w", err)
	}
	return nil
}

// describe builds a Descriptor for a raw input mouse handle.
func describe(handle uintptr) (Descriptor, bool) {
	var info ridDeviceInfo
	info.CbSize = uint32(unsafe.Sizeof(info))
	size := info.CbSize
	r, _, _ := procGetRawInputDeviceInfoW.Call(handle, ridiDeviceInfo, uintptr(unsafe.Pointer(&info)), uintptr(unsafe.Pointer(&size)))
	if int32(r) <= 0 || info.Type != rimTypeMouse {
		return Descriptor{}, false
	}
	path := deviceName(handle)
	vid, pid, _ := ParseVendorProduct(path)
	return Descriptor{
		Handle:    handle,
		Path:      path,
		VendorID:  vid,
		ProductID: pid,
	}, true
}

// deviceName returns the interface path of a raw input handle, or "" when
// the device is already gone.
func deviceName(handle uintptr) string {
	var n uint32
	procGetRawInputDeviceInfoW.Call(handle, ridiDeviceName, 0, uintptr(unsafe.Pointer(&n)))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n)
	r, _, _ := procGetRawInputDeviceInfoW.Call(handle, ridiDeviceName, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&n)))
	if int32(r) <= 0 {
		return ""
	}
	return windows.UTF16ToString(buf)
}
