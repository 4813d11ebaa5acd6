// Package assign owns the persisted device-to-display assignment map.
package assign

import (
	"errors"
	"sort"

	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

var (
	// ErrLoad reports that the settings file exists but could not be read.
	ErrLoad = errors.New("settings could not be read")
	// ErrCorrupt reports that the settings file could not be parsed.
	ErrCorrupt = errors.New("settings file is corrupt")
	// ErrPersist reports that a mutation was applied in memory but not saved.
	ErrPersist = errors.New("settings could not be saved")
	// ErrInvalid reports a rejected mutation.
	ErrInvalid = errors.New("invalid settings value")
)

// Map binds device identities to display identities. Entries may name
// devices or displays that are not connected.
type Map map[pointer.DeviceID]monitor.DisplayID

// Assignment is the persisted value for one device.
type Assignment struct {
	Display monitor.DisplayID `yaml:"display" json:"display"`
}

// Settings is the persisted record.
type Settings struct {
	Devices map[pointer.DeviceID]Assignment `yaml:"devices" json:"devices"`
	// StartupDelay is applied before the first reconcile when launched at login, in seconds.
	StartupDelay int `yaml:"startupDelay" json:"startupDelay"`
}

// Map flattens the device assignments.
func (s Settings) Map() Map {
	out := make(Map, len(s.Devices))
	for id, a := range s.Devices {
		out[id] = a.Display
	}
	return out
}

// clone deep-copies settings so callers never share the store's map.
func (s Settings) clone() Settings {
	out := Settings{
		Devices:      make(map[pointer.DeviceID]Assignment, len(s.Devices)),
		StartupDelay: s.StartupDelay,
	}
	for id, a := range s.Devices {
		out.Devices[id] = a
	}
	return out
}

// Pair is one map entry.
type Pair struct {
	Device  pointer.DeviceID  `json:"device"`
	Display monitor.DisplayID `json:"display"`
}

// Entries returns the map sorted by device ID.
func (m Map) Entries() []Pair {
	out := make([]Pair, 0, len(m))
	for id, display := range m {
		out = append(out, Pair{Device: id, Display: display})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}

// defaults returns empty settings with no startup delay.
func defaults() Settings {
	return Settings{Devices: make(map[pointer.DeviceID]Assignment)}
}
