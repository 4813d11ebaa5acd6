package assign

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	return New(path, nil), path
}

// TestInitMissingFileYieldsDefaults verifies a missing file loads defaults.
func TestInitMissingFileYieldsDefaults(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Init())

	cfg := s.Config()
	assert.Empty(t, cfg.Devices)
	assert.Equal(t, 0, cfg.StartupDelay)
}

// TestInitCorruptFileIsNotFatal verifies a corrupt file is reported and the store stays usable.
func TestInitCorruptFileIsNotFatal(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte("devices: [this is: not a map"), 0o600))

	err := s.Init()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Empty(t, s.Assignments())

	// The store keeps working with the in-memory map.
	_, err = s.Update(Map{"mouseA": "dispL"})
	require.NoError(t, err)
	assert.Equal(t, Map{"mouseA": "dispL"}, s.Assignments())
}

// TestInitDropsIncompleteEntries verifies entries without a display are dropped on load.
func TestInitDropsIncompleteEntries(t *testing.T) {
	s, path := newStore(t)
	raw := "devices:\n  mouseA:\n    display: dispL\n  mouseB:\n    display: \"\"\nstartupDelay: -4\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	require.NoError(t, s.Init())
	assert.Equal(t, Map{"mouseA": "dispL"}, s.Assignments())
	assert.Equal(t, 0, s.Config().StartupDelay)
}

// TestUpdateMergesAndPersists verifies Update merges into the map and writes it through.
func TestUpdateMergesAndPersists(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.Init())

	_, err := s.Update(Map{"mouseA": "dispL", "mouseB": "dispL"})
	require.NoError(t, err)
	got, err := s.Update(Map{"mouseB": "dispR"})
	require.NoError(t, err)
	assert.Equal(t, Map{"mouseA": "dispL", "mouseB": "dispR"}, got.Map())

	reloaded := New(path, nil)
	require.NoError(t, reloaded.Init())
	assert.Equal(t, got.Map(), reloaded.Assignments())
}

// TestReplaceAndUnassign verifies Replace swaps the map and Unassign removes entries.
func TestReplaceAndUnassign(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Init())

	_, err := s.Update(Map{"mouseA": "dispL", "mouseB": "dispR"})
	require.NoError(t, err)

	got, err := s.Replace(Map{"mouseC": "dispR"})
	require.NoError(t, err)
	assert.Equal(t, Map{"mouseC": "dispR"}, got.Map())

	got, err = s.Unassign("mouseC", "missing")
	require.NoError(t, err)
	assert.Empty(t, got.Map())
}

// TestUpdateRejectsEmptyDisplay verifies an empty display id is rejected.
func TestUpdateRejectsEmptyDisplay(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Update(Map{"mouseA": ""})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, s.Assignments())
}

// TestPersistFailureKeepsInMemoryState verifies a failed write keeps the in-memory change.
func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	s := New(filepath.Join(blocker, "settings.yaml"), nil)

	got, err := s.Update(Map{"mouseA": "dispL"})
	assert.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, Map{"mouseA": "dispL"}, got.Map())
	assert.Equal(t, Map{"mouseA": "dispL"}, s.Assignments())
}

// TestStaleEntriesAreKept verifies entries for unknown devices or displays survive a reload.
func TestStaleEntriesAreKept(t *testing.T) {
	s, path := newStore(t)
	_, err := s.Update(Map{"ghost": "unplugged-display"})
	require.NoError(t, err)

	reloaded := New(path, nil)
	require.NoError(t, reloaded.Init())
	assert.Equal(t, monitor.DisplayID("unplugged-display"), reloaded.Assignments()[pointer.DeviceID("ghost")])
}

// TestConfigIsASnapshot verifies callers cannot mutate the store through Config.
func TestConfigIsASnapshot(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Update(Map{"mouseA": "dispL"})
	require.NoError(t, err)

	cfg := s.Config()
	cfg.Devices["mouseA"] = Assignment{Display: "tampered"}
	m := s.Assignments()
	m["mouseB"] = "dispR"

	assert.Equal(t, Map{"mouseA": "dispL"}, s.Assignments())
}

// TestSetStartupDelay verifies the delay is stored and negatives are rejected.
func TestSetStartupDelay(t *testing.T) {
	s, _ := newStore(t)
	got, err := s.SetStartupDelay(5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StartupDelay)

	_, err = s.SetStartupDelay(-1)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 5, s.Config().StartupDelay)
}

// TestOnUpdateNotifies verifies listeners see every mutation until cancelled.
func TestOnUpdateNotifies(t *testing.T) {
	s, _ := newStore(t)
	var calls int32
	cancel := s.OnUpdate(func(Settings) { atomic.AddInt32(&calls, 1) })

	_, _ = s.Update(Map{"mouseA": "dispL"})
	cancel()
	_, _ = s.Update(Map{"mouseB": "dispR"})

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestPersistedLayout verifies the on-disk YAML layout.
func TestPersistedLayout(t *testing.T) {
	s, path := newStore(t)
	_, err := s.Update(Map{"mouseB": "dispR", "mouseA": "dispL"})
	require.NoError(t, err)
	_, err = s.SetStartupDelay(3)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	g := goldie.New(t)
	g.Assert(t, "settings", data)
}

// TestReloadPicksUpExternalEdits verifies Reload installs content written by another store.
func TestReloadPicksUpExternalEdits(t *testing.T) {
	s, path := newStore(t)
	_, err := s.Update(Map{"mouseA": "dispL"})
	require.NoError(t, err)

	var calls int32
	defer s.OnUpdate(func(Settings) { atomic.AddInt32(&calls, 1) })()

	changed, err := s.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "unchanged file must not notify")

	other := New(path, nil)
	require.NoError(t, other.Init())
	_, err = other.Update(Map{"mouseB": "dispR"})
	require.NoError(t, err)

	changed, err = s.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Map{"mouseA": "dispL", "mouseB": "dispR"}, s.Assignments())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestReloadKeepsStateOnCorruptFile verifies a corrupt file does not replace memory on Reload.
func TestReloadKeepsStateOnCorruptFile(t *testing.T) {
	s, path := newStore(t)
	_, err := s.Update(Map{"mouseA": "dispL"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("devices: [broken"), 0o600))

	changed, err := s.Reload()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.False(t, changed)
	assert.Equal(t, Map{"mouseA": "dispL"}, s.Assignments())
}

// TestMapEntriesSorted verifies Entries orders pairs by device ID.
func TestMapEntriesSorted(t *testing.T) {
	m := Map{"mouseB": "dispR", "mouseA": "dispL"}
	assert.Equal(t, []Pair{{Device: "mouseA", Display: "dispL"}, {Device: "mouseB", Display: "dispR"}}, m.Entries())
}

// TestReloadSkipsStaleReadAfterConcurrentUpdate verifies a mutation landing
// between the file read and the install is not reverted by stale content.
func TestReloadSkipsStaleReadAfterConcurrentUpdate(t *testing.T) {
	s, path := newStore(t)
	_, err := s.Update(Map{"mouseA": "dispL"})
	require.NoError(t, err)

	// An external edit makes the file differ from memory.
	other := New(path, nil)
	require.NoError(t, other.Init())
	_, err = other.Update(Map{"mouseB": "dispR"})
	require.NoError(t, err)

	s.afterLoad = func() {
		s.afterLoad = nil
		_, err := s.Update(Map{"mouseA": "dispR"})
		require.NoError(t, err)
	}
	changed, err := s.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, monitor.DisplayID("dispR"), s.Assignments()["mouseA"])

	// The next reload sees the file the in-process write produced.
	changed, err = s.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, Map{"mouseA": "dispR"}, s.Assignments())
}
