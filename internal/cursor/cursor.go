// Package cursor exposes the platform cursor-set primitive.
package cursor

import "errors"

// ErrUnsupported indicates cursor control is not available on this platform.
var ErrUnsupported = errors.New("cursor control is not supported on this platform")

// Cursor reads and positions the system cursor in virtual-screen coordinates.
type Cursor interface {
	SetCursorPos(x, y int) error
	CursorPos() (x, y int, ok bool)
}
