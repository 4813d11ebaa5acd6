// Package pointer enumerates pointing devices, gives each a stable identity
// and fans out their relative motion to subscribers.
package pointer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Registry owns the connected device set. It translates session handles
// from its Source into stable DeviceIDs at the package boundary.
type Registry struct {
	mu          sync.RWMutex
	source      Source
	logger      *slog.Logger
	descriptors map[uintptr]Descriptor
	byHandle    map[uintptr]Device
	listeners   map[int]Listener
	displayFns  map[int]func()
	motion      map[DeviceID]map[int]*subscription
	nextID      int

	cancel context.CancelFunc
	done   chan struct{}
}

// subscription serialises delivery with cancellation so no callback runs
// after unsubscribe returns.
type subscription struct {
	mu     sync.Mutex
	fn     MotionFunc
	closed bool
}

// deliver calls fn unless the subscription is closed. Holding mu while fn
// runs is what lets close wait for an in-flight callback.
func (s *subscription) deliver(id DeviceID, dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(id, dx, dy)
}

// close blocks until any running callback returns.
func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// NewRegistry returns a registry fed by source. A nil source yields a
// registry that never reports devices.
func NewRegistry(source Source, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source:      source,
		logger:      logger,
		descriptors: make(map[uintptr]Descriptor),
		byHandle:    make(map[uintptr]Device),
		listeners:   make(map[int]Listener),
		displayFns:  make(map[int]func()),
		motion:      make(map[DeviceID]map[int]*subscription),
	}
}

// Init starts the source. It returns ErrUnsupported when no source is
// configured; the registry then stays empty.
func (r *Registry) Init(ctx context.Context) error {
	if r.source == nil {
		return ErrUnsupported
	}
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		err := r.source.Run(runCtx, registrySink{r: r})
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("pointer source stopped", slog.Any("err", err))
		}
	}()
	return nil
}

// Close stops the source and waits for it to exit.
func (r *Registry) Close() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// List returns the connected devices sorted by ID.
func (r *Registry) List() []Device {
	r.mu.RLock()
	out := make([]Device, 0, len(r.byHandle))
	for _, d := range r.byHandle {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sortDevices(out)
	return out
}

// RegisterListener adds a device-set listener.
func (r *Registry) RegisterListener(l Listener) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// OnDisplayChange relays display-change signals observed by the source.
func (r *Registry) OnDisplayChange(fn func()) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.displayFns[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.displayFns, id)
		r.mu.Unlock()
	}
}

// OnMotion subscribes fn to relative motion of device id. Once unsubscribe
// returns, fn is never called again. fn must not call its own unsubscribe.
func (r *Registry) OnMotion(id DeviceID, fn MotionFunc) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	r.mu.Lock()
	key := r.nextID
	r.nextID++
	subs := r.motion[id]
	if subs == nil {
		subs = make(map[int]*subscription)
		r.motion[id] = subs
	}
	subs[key] = sub
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if subs := r.motion[id]; subs != nil {
				delete(subs, key)
				if len(subs) == 0 {
					delete(r.motion, id)
				}
			}
			r.mu.Unlock()
			sub.close()
		})
	}
}

// arrived records a descriptor and notifies listeners if the device set changed.
func (r *Registry) arrived(d Descriptor) {
	r.mu.Lock()
	if prev, ok := r.descriptors[d.Handle]; ok && prev == d {
		r.mu.Unlock()
		return
	}
	r.descriptors[d.Handle] = d
	changed := r.rebuildLocked()
	fns := r.listenerFnsLocked()
	r.mu.Unlock()

	if changed {
		r.logger.Info("pointer device attached", slog.String("path", d.Path))
		notify(fns)
	}
}

// removed forgets a handle and notifies listeners when it was known.
func (r *Registry) removed(handle uintptr) {
	r.mu.Lock()
	d, ok := r.descriptors[handle]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.descriptors, handle)
	changed := r.rebuildLocked()
	fns := r.listenerFnsLocked()
	r.mu.Unlock()

	if changed {
		r.logger.Info("pointer device detached", slog.String("path", d.Path))
		notify(fns)
	}
}

// moved fans motion out to the subscribers of the handle's device.
func (r *Registry) moved(handle uintptr, dx, dy int) {
	r.mu.RLock()
	dev, ok := r.byHandle[handle]
	var subs []*subscription
	if ok {
		for _, s := range r.motion[dev.ID] {
			subs = append(subs, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range subs {
		s.deliver(dev.ID, dx, dy)
	}
}

// displaysChanged relays a display change notice.
func (r *Registry) displaysChanged() {
	r.mu.RLock()
	fns := make([]func(), 0, len(r.displayFns))
	for _, fn := range r.displayFns {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()
	notify(fns)
}

// rebuildLocked recomputes identities and reports whether the ID set or any
// device description changed.
func (r *Registry) rebuildLocked() bool {
	descs := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		descs = append(descs, d)
	}
	next := resolveIdentities(descs)
	changed := len(next) != len(r.byHandle)
	if !changed {
		for h, d := range next {
			if prev, ok := r.byHandle[h]; !ok || prev != d {
				changed = true
				break
			}
		}
	}
	r.byHandle = next
	return changed
}

// listenerFnsLocked copies the device listeners; callers hold mu.
func (r *Registry) listenerFnsLocked() []func() {
	fns := make([]func(), 0, len(r.listeners))
	for _, l := range r.listeners {
		if l.DevicesChanged != nil {
			fns = append(fns, l.DevicesChanged)
		}
	}
	return fns
}

// notify runs the listeners collected under the lock.
func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// registrySink adapts the registry to the Sink interface without exporting
// the raw handle entry points.
type registrySink struct {
	r *Registry
}

func (s registrySink) DeviceArrived(d Descriptor)        { s.r.arrived(d) }
func (s registrySink) DeviceRemoved(handle uintptr)      { s.r.removed(handle) }
func (s registrySink) Motion(handle uintptr, dx, dy int) { s.r.moved(handle, dx, dy) }
func (s registrySink) DisplaysChanged()                  { s.r.displaysChanged() }
