// Package pointer enumerates pointing devices, gives each a stable identity
// and fans out their relative motion to subscribers.
package pointer

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// identityNamespace seeds UUIDs for devices without vendor/product descriptors.
var identityNamespace = uuid.MustParse("9b4f1d2a-3c6e-5a7b-8d90-1e2f3a4b5c6d")

var (
	// USB paths carry VID_046D; Bluetooth paths carry VID&0002046d.
	vidPattern = regexp.MustCompile(`(?i)VID[_&]([0-9a-f]{4,8})`)
	pidPattern = regexp.MustCompile(`(?i)PID[_&]([0-9a-f]{4})`)
)

// ParseVendorProduct extracts vendor and product IDs from an OS instance path.
func ParseVendorProduct(path string) (vid, pid uint16, ok bool) {
	vm := vidPattern.FindStringSubmatch(path)
	pm := pidPattern.FindStringSubmatch(path)
	if vm == nil || pm == nil {
		return 0, 0, false
	}
	rawVID := vm[1]
	rawVID = rawVID[len(rawVID)-4:]
	v, err := strconv.ParseUint(rawVID, 16, 16)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseUint(pm[1], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint16(v), uint16(p), true
}

// modelKey returns the identity shared by every device of the same model.
func modelKey(d Descriptor) DeviceID {
	vid, pid := vendorProduct(d)
	if vid != 0 || pid != 0 {
		return DeviceID(fmt.Sprintf("%04x:%04x", vid, pid))
	}
	seed := strings.ToLower(strings.TrimSpace(d.Path))
	if seed == "" {
		seed = "name:" + strings.ToLower(strings.TrimSpace(d.Name))
	}
	return DeviceID("dev-" + uuid.NewSHA1(identityNamespace, []byte(seed)).String())
}

// portKey hashes the instance segment of the path, which Windows derives
// from the port the device is plugged into. It is empty when the path
// carries no instance segment.
func portKey(path string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(path)), "#")
	if len(parts) < 3 || parts[2] == "" {
		return ""
	}
	sum := uuid.NewSHA1(identityNamespace, []byte("port:"+parts[2]))
	return hex.EncodeToString(sum[:4])
}

// identityOf derives a device's ID from its own descriptor only, so the ID
// of one device never depends on which other devices are connected.
func identityOf(d Descriptor) (id, model DeviceID) {
	model = modelKey(d)
	if strings.HasPrefix(string(model), "dev-") {
		return model, model
	}
	if port := portKey(d.Path); port != "" {
		return DeviceID(fmt.Sprintf("%s@%s", model, port)), model
	}
	return model, model
}

// vendorProduct prefers explicit descriptor IDs over the parsed path.
func vendorProduct(d Descriptor) (uint16, uint16) {
	if d.VendorID != 0 || d.ProductID != 0 {
		return d.VendorID, d.ProductID
	}
	vid, pid, _ := ParseVendorProduct(d.Path)
	return vid, pid
}

// resolveIdentities assigns a DeviceID to every connected descriptor.
// Descriptors that still collide (no usable path) are ordered by handle and
// later ones get "#2", "#3", ...
func resolveIdentities(descs []Descriptor) map[uintptr]Device {
	sorted := make([]Descriptor, len(descs))
	copy(sorted, descs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Handle < sorted[j].Handle })

	seen := make(map[DeviceID]int, len(sorted))
	out := make(map[uintptr]Device, len(sorted))
	for _, d := range sorted {
		id, model := identityOf(d)
		seen[id]++
		if n := seen[id]; n > 1 {
			id = DeviceID(fmt.Sprintf("%s#%d", id, n))
		}
		vid, pid := vendorProduct(d)
		out[d.Handle] = Device{
			ID:        id,
			Model:     model,
			Label:     label(d, model),
			VendorID:  vid,
			ProductID: pid,
			Path:      d.Path,
		}
	}
	return out
}

// label picks a human-readable name for a device.
func label(d Descriptor, model DeviceID) string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Pointer %s", model)
}
