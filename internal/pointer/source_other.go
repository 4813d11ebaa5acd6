//go:build !windows

// Package pointer enumerates pointing devices, gives each a stable identity
// and fans out their relative motion to subscribers.
package pointer

// NewSource returns ErrUnsupported: outside Windows no API exposes relative
// motion per physical device without elevated input-device access.
func NewSource() (Source, error) {
	return nil, ErrUnsupported
}
