package testutil

import (
	"context"
	"sync"

	"github.com/frudas24/dynamouse/internal/pointer"
)

// FakeSource implements pointer.Source and lets tests drive raw events.
type FakeSource struct {
	mu    sync.Mutex
	sink  pointer.Sink
	ready chan struct{}
	once  sync.Once
	// Initial descriptors are reported as soon as Run starts.
	Initial []pointer.Descriptor
}

// Ensure FakeSource implements the interface.
var _ pointer.Source = (*FakeSource)(nil)

// NewFakeSource returns a source that reports initial on start.
func NewFakeSource(initial ...pointer.Descriptor) *FakeSource {
	return &FakeSource{ready: make(chan struct{}), Initial: initial}
}

// Run stores the sink and blocks until ctx is done.
func (f *FakeSource) Run(ctx context.Context, sink pointer.Sink) error {
	f.mu.Lock()
	f.sink = sink
	f.mu.Unlock()
	for _, d := range f.Initial {
		sink.DeviceArrived(d)
	}
	f.once.Do(func() { close(f.ready) })
	<-ctx.Done()
	return ctx.Err()
}

// Ready is closed once Run has reported the initial devices.
func (f *FakeSource) Ready() <-chan struct{} {
	return f.ready
}

// Attach reports a device arrival.
func (f *FakeSource) Attach(d pointer.Descriptor) {
	f.current().DeviceArrived(d)
}

// Detach reports a device removal.
func (f *FakeSource) Detach(handle uintptr) {
	f.current().DeviceRemoved(handle)
}

// Move reports relative motion for a handle.
func (f *FakeSource) Move(handle uintptr, dx, dy int) {
	f.current().Motion(handle, dx, dy)
}

// DisplaysChanged reports a display topology change.
func (f *FakeSource) DisplaysChanged() {
	f.current().DisplaysChanged()
}

// current waits for Run and returns its sink.
func (f *FakeSource) current() pointer.Sink {
	<-f.ready
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sink
}
