// Package engine resolves the enforcement plan and keeps each assigned
// device's cursor inside its display.
package engine

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/frudas24/dynamouse/internal/assign"
	"github.com/frudas24/dynamouse/internal/cursor"
	"github.com/frudas24/dynamouse/internal/geom"
	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

// MotionSource delivers relative motion per device.
type MotionSource interface {
	OnMotion(id pointer.DeviceID, fn pointer.MotionFunc) (unsubscribe func())
}

// State is the engine lifecycle state.
type State int

const (
	// Idle means no plan entries and no motion subscriptions.
	Idle State = iota
	// Active means at least one device is being enforced.
	Active
)

// String returns the state name.
func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Stats counts engine activity since construction.
type Stats struct {
	Reconciles   uint64 `json:"reconciles"`
	Subscribes   uint64 `json:"subscribes"`
	Unsubscribes uint64 `json:"unsubscribes"`
	Moves        uint64 `json:"moves"`
	CursorErrors uint64 `json:"cursorErrors"`
}

// Engine owns the active plan and its motion subscriptions.
type Engine struct {
	mu       sync.Mutex
	motion   MotionSource
	cursor   cursor.Cursor
	logger   *slog.Logger
	bindings map[pointer.DeviceID]*binding
	state    State

	reconciles   atomic.Uint64
	subscribes   atomic.Uint64
	unsubscribes atomic.Uint64
	moves        atomic.Uint64
	cursorErrors atomic.Uint64
}

// binding is one plan entry plus that device's last emitted position.
// Motion handling only touches its own binding.
type binding struct {
	mu          sync.Mutex
	device      pointer.Device
	display     monitor.Display
	last        geom.Point
	hasLast     bool
	unsubscribe func()
}

// New creates an idle engine.
func New(motion MotionSource, cur cursor.Cursor, logger *slog.Logger) (*Engine, error) {
	if motion == nil {
		return nil, errors.New("motion source is required")
	}
	if cur == nil {
		return nil, errors.New("cursor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		motion:   motion,
		cursor:   cur,
		logger:   logger,
		bindings: make(map[pointer.DeviceID]*binding),
	}, nil
}

// Reconcile replaces the active plan with one resolved from the given
// snapshots and adjusts motion subscriptions. Entries unchanged since the
// previous call keep their subscription. It never fails.
func (e *Engine) Reconcile(devices []pointer.Device, displays []monitor.Display, m assign.Map) Plan {
	plan := Resolve(devices, displays, m)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.reconciles.Add(1)

	for id, b := range e.bindings {
		entry, keep := plan[id]
		if keep && entry.Display.ID == b.displayID() {
			b.refresh(entry)
			continue
		}
		b.unsubscribe()
		delete(e.bindings, id)
		e.unsubscribes.Add(1)
	}

	for id, entry := range plan {
		if _, ok := e.bindings[id]; ok {
			continue
		}
		b := &binding{device: entry.Device, display: entry.Display}
		b.unsubscribe = e.motion.OnMotion(id, func(_ pointer.DeviceID, dx, dy int) {
			e.handleMotion(b, dx, dy)
		})
		e.bindings[id] = b
		e.subscribes.Add(1)
		e.logger.Debug("device bound", slog.String("device", string(id)), slog.String("display", string(entry.Display.ID)))
	}

	next := Idle
	if len(e.bindings) > 0 {
		next = Active
	}
	if next != e.state {
		e.logger.Info("enforcement state changed", slog.String("from", e.state.String()), slog.String("to", next.String()), slog.Int("devices", len(e.bindings)))
		e.state = next
	}
	return plan.Clone()
}

// State reports whether any device is being enforced.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Plan returns the active plan.
func (e *Engine) Plan() Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	plan := make(Plan, len(e.bindings))
	for id, b := range e.bindings {
		plan[id] = b.entry()
	}
	return plan
}

// Stats returns activity counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Reconciles:   e.reconciles.Load(),
		Subscribes:   e.subscribes.Load(),
		Unsubscribes: e.unsubscribes.Load(),
		Moves:        e.moves.Load(),
		CursorErrors: e.cursorErrors.Load(),
	}
}

// Close drops every subscription and returns the engine to Idle.
func (e *Engine) Close() {
	e.Reconcile(nil, nil, nil)
}

// handleMotion maps one motion report into the binding's display. A base
// position outside the display snaps to the nearest in-bounds point and
// ignores the delta.
func (e *Engine) handleMotion(b *binding, dx, dy int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bounds := b.display.Bounds
	base := b.last
	if !b.hasLast {
		if x, y, ok := e.cursor.CursorPos(); ok {
			base = geom.Point{X: x, Y: y}
		} else {
			base = geom.Center(bounds)
		}
	}

	var target geom.Point
	if geom.Contains(bounds, base.X, base.Y) {
		target = geom.Nearest(bounds, base.X+dx, base.Y+dy)
	} else {
		target = geom.Nearest(bounds, base.X, base.Y)
	}

	if err := e.cursor.SetCursorPos(target.X, target.Y); err != nil {
		e.cursorErrors.Add(1)
		e.logger.Warn("cursor move failed",
			slog.String("device", string(b.device.ID)),
			slog.Int("x", target.X), slog.Int("y", target.Y),
			slog.Any("err", err))
		return
	}
	e.moves.Add(1)
	b.last = target
	b.hasLast = true
}

// displayID returns the display the binding currently targets.
func (b *binding) displayID() monitor.DisplayID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.display.ID
}

// refresh picks up new bounds or labels for an unchanged entry.
func (b *binding) refresh(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.device = entry.Device
	b.display = entry.Display
}

// entry returns a copy of the binding's plan entry.
func (b *binding) entry() Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Entry{Device: b.device, Display: b.display}
}
