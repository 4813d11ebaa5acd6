//go:build windows

// Package monitor describes display geometry and enumeration.
package monitor

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"github.com/frudas24/dynamouse/internal/geom"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")

	// syscall callbacks are never freed; one is shared and the active
	// state is handed over under enumMu.
	enumMu       sync.Mutex
	enumActive   *enumState
	enumCallback = syscall.NewCallback(enumProc)
)

// monitorInfoEx mirrors MONITORINFOEXW; lxn/win only exposes MONITORINFO.
type monitorInfoEx struct {
	CbSize    uint32
	RcMonitor win.RECT
	RcWork    win.RECT
	DwFlags   uint32
	SzDevice  [32]uint16
}

// ListDisplays returns the list of available displays using WinAPI.
func ListDisplays() ([]Display, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	state := &enumState{}
	enumActive = state
	defer func() { enumActive = nil }()

	if r, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0); r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}
	sortDisplays(state.list)
	return state.list, nil
}

type enumState struct {
	list  []Display
	index int
}

// enumProc is the EnumDisplayMonitors callback; it appends to enumActive.
func enumProc(hMonitor win.HMONITOR, hdc win.HDC, rect *win.RECT, lparam uintptr) uintptr {
	s := enumActive
	if s == nil {
		return 0
	}
	var info monitorInfoEx
	info.CbSize = uint32(unsafe.Sizeof(info))
	if r, _, _ := procGetMonitorInfoW.Call(uintptr(hMonitor), uintptr(unsafe.Pointer(&info))); r == 0 {
		return 1
	}

	s.index++
	name := windows.UTF16ToString(info.SzDevice[:])
	id := DisplayID(name)
	if name == "" {
		id = DisplayID(fmt.Sprintf("display-%d", s.index))
	}
	monitorRect := info.RcMonitor
	s.list = append(s.list, Display{
		ID:   id,
		Name: name,
		Bounds: geom.Rect{
			X: int(monitorRect.Left),
			Y: int(monitorRect.Top),
			W: int(monitorRect.Right - monitorRect.Left),
			H: int(monitorRect.Bottom - monitorRect.Top),
		},
		Primary: info.DwFlags&win.MONITORINFOF_PRIMARY != 0,
	})
	return 1
}
