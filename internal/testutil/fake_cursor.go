package testutil

import (
	"sync"

	"github.com/frudas24/dynamouse/internal/cursor"
)

// Call records a single cursor operation.
type Call struct {
	Name string
	X    int
	Y    int
}

// FakeCursor implements cursor.Cursor and records calls for tests.
type FakeCursor struct {
	mu    sync.Mutex
	Calls []Call
	X     int
	Y     int
	HasXY bool
	// Err, when set, makes SetCursorPos fail without moving the cursor.
	Err error
}

// Ensure FakeCursor implements the interface.
var _ cursor.Cursor = (*FakeCursor)(nil)

// SetCursorPos records an absolute move.
func (f *FakeCursor) SetCursorPos(x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Name: "SetCursorPos", X: x, Y: y})
	if f.Err != nil {
		return f.Err
	}
	f.X, f.Y, f.HasXY = x, y, true
	return nil
}

// CursorPos reports the last position set or seeded.
func (f *FakeCursor) CursorPos() (int, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.X, f.Y, f.HasXY
}

// SetErr swaps the failure injected into SetCursorPos.
func (f *FakeCursor) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

// Snapshot returns a copy of the recorded calls.
func (f *FakeCursor) Snapshot() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.Calls))
	copy(out, f.Calls)
	return out
}

// Last returns the most recent call.
func (f *FakeCursor) Last() (Call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Call{}, false
	}
	return f.Calls[len(f.Calls)-1], true
}
