//go:build windows

// Package cursor exposes the platform cursor-set primitive.
package cursor

import (
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

// WinCursor positions the cursor using WinAPI.
type WinCursor struct{}

// New returns a Windows cursor.
func New() (Cursor, error) {
	return &WinCursor{}, nil
}

// SetCursorPos moves the cursor to an absolute virtual-screen coordinate,
// falling back to an injected absolute move when SetCursorPos is refused.
func (w *WinCursor) SetCursorPos(x, y int) error {
	if win.SetCursorPos(int32(x), int32(y)) {
		return nil
	}
	dx, dy := mapAbsolute(x, y)
	return sendMouseMove(dx, dy)
}

// CursorPos reports the current cursor position.
func (w *WinCursor) CursorPos() (int, int, bool) {
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return 0, 0, false
	}
	return int(pt.X), int(pt.Y), true
}

// sendMouseMove dispatches a single absolute move on the virtual desktop.
func sendMouseMove(dx, dy int32) error {
	input := win.MOUSE_INPUT{
		Type: win.INPUT_MOUSE,
		Mi: win.MOUSEINPUT{
			Dx:      dx,
			Dy:      dy,
			DwFlags: win.MOUSEEVENTF_MOVE | win.MOUSEEVENTF_ABSOLUTE | win.MOUSEEVENTF_VIRTUALDESK,
		},
	}
	if win.SendInput(1, unsafe.Pointer(&input), int32(unsafe.Sizeof(input))) != 1 {
		return syscall.Errno(win.GetLastError())
	}
	return nil
}

// mapAbsolute converts screen coordinates to the WinAPI absolute range.
func mapAbsolute(x, y int) (int32, int32) {
	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	if vw <= 1 {
		vw = 2
	}
	if vh <= 1 {
		vh = 2
	}
	dx := (int64(x) - int64(vx)) * 65535 / int64(vw-1)
	dy := (int64(y) - int64(vy)) * 65535 / int64(vh-1)
	return int32(dx), int32(dy)
}
