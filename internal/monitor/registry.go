// Package monitor describes display geometry and enumeration.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Provider returns the current list of displays.
type Provider func() ([]Display, error)

// Registry caches the connected display set and notifies listeners when it
// changes. Enumeration failures degrade to an empty set.
type Registry struct {
	mu        sync.Mutex
	provider  Provider
	logger    *slog.Logger
	displays  []Display
	loaded    bool
	listeners map[int]func()
	nextID    int
}

// NewRegistry returns a registry backed by provider. A nil provider uses ListDisplays.
func NewRegistry(provider Provider, logger *slog.Logger) *Registry {
	if provider == nil {
		provider = ListDisplays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		provider:  provider,
		logger:    logger,
		listeners: make(map[int]func()),
	}
}

// List returns a copy of the current display snapshot.
func (r *Registry) List() []Display {
	r.mu.Lock()
	if !r.loaded {
		r.displays = r.enumerate()
		r.loaded = true
	}
	out := make([]Display, len(r.displays))
	copy(out, r.displays)
	r.mu.Unlock()
	return out
}

// OnChange registers fn to run after the display set changes.
func (r *Registry) OnChange(fn func()) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Refresh re-enumerates displays and notifies listeners if anything changed.
func (r *Registry) Refresh() bool {
	r.mu.Lock()
	next := r.enumerate()
	changed := !r.loaded || !equalSets(r.displays, next)
	r.displays = next
	r.loaded = true
	var fns []func()
	if changed {
		fns = make([]func(), 0, len(r.listeners))
		for _, fn := range r.listeners {
			fns = append(fns, fn)
		}
	}
	r.mu.Unlock()

	if changed {
		r.logger.Info("display topology changed", slog.Int("displays", len(next)))
		for _, fn := range fns {
			fn()
		}
	}
	return changed
}

// Watch refreshes the snapshot every interval until ctx is done.
func (r *Registry) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh()
		}
	}
}

// enumerate calls the provider; caller holds r.mu.
func (r *Registry) enumerate() []Display {
	list, err := r.provider()
	if err != nil {
		r.logger.Warn("display enumeration failed", slog.Any("err", err))
		return nil
	}
	out := make([]Display, len(list))
	copy(out, list)
	sortDisplays(out)
	return out
}
