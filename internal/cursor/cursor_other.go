//go:build !windows

// Package cursor exposes the platform cursor-set primitive.
package cursor

import "github.com/go-vgo/robotgo"

// RobotCursor positions the cursor through robotgo on macOS and X11.
type RobotCursor struct{}

// New returns a robotgo-backed cursor.
func New() (Cursor, error) {
	return &RobotCursor{}, nil
}

// SetCursorPos moves the cursor to an absolute virtual-screen coordinate.
func (r *RobotCursor) SetCursorPos(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// CursorPos reports the current cursor position.
func (r *RobotCursor) CursorPos() (int, int, bool) {
	x, y := robotgo.Location()
	return x, y, true
}
