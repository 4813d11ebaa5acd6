// Package pointer enumerates pointing devices, gives each a stable identity
// and fans out their relative motion to subscribers.
package pointer

import (
	"errors"
	"sort"
)

// ErrUnsupported indicates per-device raw input is not available on this platform.
var ErrUnsupported = errors.New("raw pointer input is not supported on this platform")

// DeviceID is a stable device identity derived from hardware descriptors.
// It survives reconnection; OS handles never appear in it.
type DeviceID string

// Device is a connected pointing device. ID names this physical device on
// its port; Model is shared by every device with the same vendor and
// product and is accepted as an assignment key too.
type Device struct {
	ID        DeviceID `json:"id"`
	Model     DeviceID `json:"model"`
	Label     string   `json:"label"`
	VendorID  uint16   `json:"vendorId,omitempty"`
	ProductID uint16   `json:"productId,omitempty"`
	Path      string   `json:"path,omitempty"`
}

// Descriptor is what a Source knows about a device on arrival. Handle is a
// session-scoped OS handle and stays inside this package.
type Descriptor struct {
	Handle    uintptr
	Path      string
	Name      string
	VendorID  uint16
	ProductID uint16
}

// MotionFunc receives relative motion for one device.
type MotionFunc func(id DeviceID, dx, dy int)

// Listener receives device-set change notifications. Callers re-query List.
type Listener struct {
	DevicesChanged func()
}

// sortDevices orders devices by ID.
func sortDevices(list []Device) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
