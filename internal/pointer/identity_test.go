package pointer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseVendorProduct verifies VID/PID extraction from USB and Bluetooth paths.
func TestParseVendorProduct(t *testing.T) {
	tests := []struct {
		name string
		path string
		vid  uint16
		pid  uint16
		ok   bool
	}{
		{
			name: "usb",
			path: `\\?\HID#VID_046D&PID_C52B&MI_01&Col01#8&2a8f1c9&0&0000#{378de44c-56ef-11d1-bc8c-00a0c91405dd}`,
			vid:  0x046d, pid: 0xc52b, ok: true,
		},
		{
			name: "bluetooth",
			path: `\\?\HID#{00001124-0000-1000-8000-00805f9b34fb}_VID&0002046d_PID&b023&Col01#9&1f0c2a&0&0000#{378de44c-56ef-11d1-bc8c-00a0c91405dd}`,
			vid:  0x046d, pid: 0xb023, ok: true,
		},
		{
			name: "lowercase",
			path: `\\?\hid#vid_05ac&pid_0265#a&1&0000`,
			vid:  0x05ac, pid: 0x0265, ok: true,
		},
		{
			name: "virtual",
			path: `\\?\Root#RDP_MOU#0000#{378de44c-56ef-11d1-bc8c-00a0c91405dd}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vid, pid, ok := ParseVendorProduct(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.vid, vid)
			assert.Equal(t, tt.pid, pid)
		})
	}
}

// TestIdentityStableAcrossReconnect verifies a new session handle on the same
// port keeps the device ID.
func TestIdentityStableAcrossReconnect(t *testing.T) {
	path := `\\?\HID#VID_046D&PID_C52B&MI_01&Col01#8&2a8f1c9&0&0000#{guid}`
	first := resolveIdentities([]Descriptor{{Handle: 0x1001, Path: path}})
	second := resolveIdentities([]Descriptor{{Handle: 0x7f3c, Path: path}})

	require.Contains(t, first, uintptr(0x1001))
	require.Contains(t, second, uintptr(0x7f3c))
	assert.Equal(t, DeviceID("046d:c52b"), first[0x1001].Model)
	assert.True(t, strings.HasPrefix(string(first[0x1001].ID), "046d:c52b@"), first[0x1001].ID)
	assert.Equal(t, first[0x1001].ID, second[0x7f3c].ID)
}

// TestIdentityDisambiguatesIdenticalModels verifies twins get distinct IDs
// that share one model key.
func TestIdentityDisambiguatesIdenticalModels(t *testing.T) {
	a := Descriptor{Handle: 0x20, Path: `\\?\HID#VID_046D&PID_C077#7&aaa&0&0000#{guid}`}
	b := Descriptor{Handle: 0x10, Path: `\\?\HID#VID_046D&PID_C077#7&bbb&0&0000#{guid}`}

	got := resolveIdentities([]Descriptor{b, a})
	assert.NotEqual(t, got[a.Handle].ID, got[b.Handle].ID)
	assert.Equal(t, DeviceID("046d:c077"), got[a.Handle].Model)
	assert.Equal(t, DeviceID("046d:c077"), got[b.Handle].Model)

	again := resolveIdentities([]Descriptor{a, b})
	assert.Equal(t, got[a.Handle].ID, again[a.Handle].ID)
	assert.Equal(t, got[b.Handle].ID, again[b.Handle].ID)
}

// TestIdentityIndependentOfTwin verifies a device keeps its ID whether or not
// an identical device is connected alongside it.
func TestIdentityIndependentOfTwin(t *testing.T) {
	x := Descriptor{Handle: 0x20, Path: `\\?\HID#VID_046D&PID_C52B#7&aaa&0&0000#{guid}`}
	y := Descriptor{Handle: 0x30, Path: `\\?\HID#VID_046D&PID_C52B#7&bbb&0&0000#{guid}`}

	both := resolveIdentities([]Descriptor{x, y})
	alone := resolveIdentities([]Descriptor{y})
	assert.Equal(t, both[y.Handle].ID, alone[y.Handle].ID)

	xAlone := resolveIdentities([]Descriptor{x})
	assert.Equal(t, both[x.Handle].ID, xAlone[x.Handle].ID)
}

// TestIdentityFallbackIsDerivedFromPath verifies devices without vendor and
// product IDs get a path-derived ID.
func TestIdentityFallbackIsDerivedFromPath(t *testing.T) {
	d := Descriptor{Handle: 0x33, Path: `\\?\Root#RDP_MOU#0000#{guid}`}
	first := resolveIdentities([]Descriptor{d})[d.Handle]
	d.Handle = 0x99
	second := resolveIdentities([]Descriptor{d})[d.Handle]

	assert.True(t, strings.HasPrefix(string(first.ID), "dev-"), first.ID)
	assert.Equal(t, first.ID, first.Model)
	assert.Equal(t, first.ID, second.ID)
}

// TestIdentityPrefersExplicitDescriptors verifies descriptor IDs win over the
// path and a pathless device is named by its model.
func TestIdentityPrefersExplicitDescriptors(t *testing.T) {
	d := Descriptor{Handle: 1, VendorID: 0x1532, ProductID: 0x0084, Name: "DeathAdder"}
	got := resolveIdentities([]Descriptor{d})[1]
	assert.Equal(t, DeviceID("1532:0084"), got.ID)
	assert.Equal(t, DeviceID("1532:0084"), got.Model)
	assert.Equal(t, "DeathAdder", got.Label)
}

// TestIdentityCollisionGetsOrdinal verifies descriptors that cannot be told
// apart still get unique IDs.
func TestIdentityCollisionGetsOrdinal(t *testing.T) {
	a := Descriptor{Handle: 1, VendorID: 0x1532, ProductID: 0x0084}
	b := Descriptor{Handle: 2, VendorID: 0x1532, ProductID: 0x0084}
	got := resolveIdentities([]Descriptor{b, a})
	assert.Equal(t, DeviceID("1532:0084"), got[1].ID)
	assert.Equal(t, DeviceID("1532:0084#2"), got[2].ID)
}
