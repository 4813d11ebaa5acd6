// Package monitor describes display geometry and enumeration.
package monitor

import (
	"errors"
	"sort"

	"github.com/frudas24/dynamouse/internal/geom"
)

// ErrUnsupported indicates display enumeration is not available on this platform.
var ErrUnsupported = errors.New("display enumeration is not supported on this platform")

// DisplayID is a stable display identity reported by the OS, never a handle.
type DisplayID string

// Display describes a display and its bounds in virtual-screen coordinates.
type Display struct {
	ID      DisplayID `json:"id"`
	Name    string    `json:"name,omitempty"`
	Bounds  geom.Rect `json:"bounds"`
	Primary bool      `json:"primary"`
}

// Find returns the display matching id.
func Find(list []Display, id DisplayID) (Display, bool) {
	for _, d := range list {
		if d.ID == id {
			return d, true
		}
	}
	return Display{}, false
}

// Index maps displays by ID.
func Index(list []Display) map[DisplayID]Display {
	out := make(map[DisplayID]Display, len(list))
	for _, d := range list {
		out[d.ID] = d
	}
	return out
}

// sortDisplays orders displays by ID so snapshots compare deterministically.
func sortDisplays(list []Display) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}

// equalSets reports whether two sorted snapshots describe the same topology.
func equalSets(a, b []Display) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
