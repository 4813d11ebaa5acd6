// Package engine resolves the enforcement plan and keeps each assigned
// device's cursor inside its display.
package engine

import (
	"sort"

	"github.com/frudas24/dynamouse/internal/assign"
	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

// Entry binds one connected device to one connected display.
type Entry struct {
	Device  pointer.Device  `json:"device"`
	Display monitor.Display `json:"display"`
}

// Plan maps connected devices to their resolved display.
type Plan map[pointer.DeviceID]Entry

// Resolve builds a plan from snapshots. A device's own ID is looked up
// first, then its model key. Devices without an assignment, or whose
// assigned display is not in displays, are left out.
func Resolve(devices []pointer.Device, displays []monitor.Display, m assign.Map) Plan {
	plan := make(Plan)
	if len(devices) == 0 || len(displays) == 0 || len(m) == 0 {
		return plan
	}
	byID := monitor.Index(displays)
	for _, d := range devices {
		displayID, ok := m[d.ID]
		if !ok && d.Model != "" {
			displayID, ok = m[d.Model]
		}
		if !ok {
			continue
		}
		display, ok := byID[displayID]
		if !ok {
			continue
		}
		plan[d.ID] = Entry{Device: d, Display: display}
	}
	return plan
}

// Entries returns the plan sorted by device ID.
func (p Plan) Entries() []Entry {
	out := make([]Entry, 0, len(p))
	for _, e := range p {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device.ID < out[j].Device.ID })
	return out
}

// Clone returns a copy of p.
func (p Plan) Clone() Plan {
	out := make(Plan, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
