// Package app wires the registries, the assignment store and the engine
// into one reconcile loop.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/frudas24/dynamouse/internal/assign"
	"github.com/frudas24/dynamouse/internal/engine"
	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

const defaultTriggerBuffer = 16

// Options tune the runtime loop.
type Options struct {
	// AtLogin applies the persisted startup delay before the first reconcile.
	AtLogin bool
	// DisplayPoll re-enumerates displays periodically; zero disables it.
	DisplayPoll time.Duration
	// SettingsPoll reloads the settings file periodically so edits made by
	// another process take effect; zero disables it.
	SettingsPoll time.Duration
	// TriggerBuffer sizes the trigger queue.
	TriggerBuffer int
}

// App coordinates device and display events with the engine.
type App struct {
	mu       sync.Mutex
	devices  *pointer.Registry
	displays *monitor.Registry
	store    *assign.Store
	engine   *engine.Engine
	logger   *slog.Logger
	opts     Options
	triggers chan Trigger
	running  bool

	after func(time.Duration) <-chan time.Time
}

// New creates a new application with its dependencies wired.
func New(devices *pointer.Registry, displays *monitor.Registry, store *assign.Store, eng *engine.Engine, logger *slog.Logger, opts Options) (*App, error) {
	if devices == nil {
		return nil, errors.New("device registry is required")
	}
	if displays == nil {
		return nil, errors.New("display registry is required")
	}
	if store == nil {
		return nil, errors.New("assignment store is required")
	}
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TriggerBuffer <= 0 {
		opts.TriggerBuffer = defaultTriggerBuffer
	}
	return &App{
		devices:  devices,
		displays: displays,
		store:    store,
		engine:   eng,
		logger:   logger,
		opts:     opts,
		triggers: make(chan Trigger, opts.TriggerBuffer),
		after:    time.After,
	}, nil
}

// Post queues a reconcile request. When the queue is full a reconcile is
// already pending and will read fresh snapshots, so the request is dropped.
func (a *App) Post(t Trigger) {
	select {
	case a.triggers <- t:
	default:
		a.logger.Debug("trigger coalesced", slog.String("trigger", t.String()))
	}
}

// Run starts device enumeration, subscribes to every change source and
// reconciles on each trigger until ctx is done. Enforcement is stopped
// before it returns.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("app is already running")
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	cancels := []func(){
		a.devices.RegisterListener(pointer.Listener{DevicesChanged: func() { a.Post(TriggerDevices) }}),
		a.devices.OnDisplayChange(func() { a.displays.Refresh() }),
		a.displays.OnChange(func() { a.Post(TriggerDisplays) }),
		a.store.OnUpdate(func(assign.Settings) { a.Post(TriggerConfig) }),
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	if err := a.devices.Init(ctx); err != nil {
		if !errors.Is(err, pointer.ErrUnsupported) {
			return err
		}
		a.logger.Warn("pointer enumeration unavailable on this platform, no devices will be enforced")
	}
	defer func() {
		if err := a.devices.Close(); err != nil {
			a.logger.Warn("device registry close failed", slog.Any("err", err))
		}
	}()
	defer a.engine.Close()

	go a.displays.Watch(ctx, a.opts.DisplayPoll)
	go a.store.Watch(ctx, a.opts.SettingsPoll)

	if !a.waitStartupDelay(ctx) {
		return nil
	}
	a.Post(TriggerStartup)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("stopping enforcement")
			return nil
		case t := <-a.triggers:
			a.reconcile(t)
		}
	}
}

// waitStartupDelay sleeps for the persisted delay when launched at login.
// It reports false if ctx ended first.
func (a *App) waitStartupDelay(ctx context.Context) bool {
	if !a.opts.AtLogin {
		return true
	}
	delay := time.Duration(a.store.Config().StartupDelay) * time.Second
	if delay <= 0 {
		return true
	}
	a.logger.Info("waiting before first reconcile", slog.Duration("delay", delay))
	select {
	case <-ctx.Done():
		return false
	case <-a.after(delay):
		return true
	}
}

// reconcile hands fresh snapshots to the engine and logs bindings that
// appeared, moved to another display or went away.
func (a *App) reconcile(t Trigger) {
	devices := a.devices.List()
	displays := a.displays.List()
	m := a.store.Assignments()
	before := a.engine.Plan()
	plan := a.engine.Reconcile(devices, displays, m)

	for id, entry := range plan {
		prev, ok := before[id]
		if ok && prev.Display.ID == entry.Display.ID {
			continue
		}
		a.logger.Info("device bound",
			slog.String("device", string(id)),
			slog.String("label", entry.Device.Label),
			slog.String("display", string(entry.Display.ID)))
	}
	for id, prev := range before {
		if _, ok := plan[id]; !ok {
			a.logger.Info("device released",
				slog.String("device", string(id)),
				slog.String("display", string(prev.Display.ID)))
		}
	}
	a.logger.Debug("reconciled",
		slog.String("trigger", t.String()),
		slog.Int("devices", len(devices)),
		slog.Int("displays", len(displays)),
		slog.Int("assignments", len(m)),
		slog.Int("enforced", len(plan)))
}
