// Package pointer enumerates pointing devices, gives each a stable identity
// and fans out their relative motion to subscribers.
package pointer

import "context"

// Sink receives raw events from a Source.
type Sink interface {
	DeviceArrived(d Descriptor)
	DeviceRemoved(handle uintptr)
	Motion(handle uintptr, dx, dy int)
	DisplaysChanged()
}

// Source streams device attach/detach and relative motion until ctx is done.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}
