package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frudas24/dynamouse/internal/geom"
)

type fakeProvider struct {
	displays []Display
	err      error
}

func (f *fakeProvider) list() ([]Display, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.displays, nil
}

func twoDisplays() []Display {
	return []Display{
		{ID: "dispR", Bounds: geom.Rect{X: 1920, Y: 0, W: 1920, H: 1080}},
		{ID: "dispL", Bounds: geom.Rect{X: 0, Y: 0, W: 1920, H: 1080}, Primary: true},
	}
}

// TestRegistryListSortsByID verifies List orders displays by ID.
func TestRegistryListSortsByID(t *testing.T) {
	p := &fakeProvider{displays: twoDisplays()}
	r := NewRegistry(p.list, nil)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, DisplayID("dispL"), list[0].ID)
	assert.Equal(t, DisplayID("dispR"), list[1].ID)
}

// TestRegistryEnumerationErrorDegradesToEmpty verifies enumeration errors yield no displays.
func TestRegistryEnumerationErrorDegradesToEmpty(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	r := NewRegistry(p.list, nil)

	assert.Empty(t, r.List())
}

// TestRegistryRefreshNotifiesOnlyOnChange verifies listeners fire only when the set changes.
func TestRegistryRefreshNotifiesOnlyOnChange(t *testing.T) {
	p := &fakeProvider{displays: twoDisplays()}
	r := NewRegistry(p.list, nil)
	r.List()

	var calls int32
	cancel := r.OnChange(func() { atomic.AddInt32(&calls, 1) })
	defer cancel()

	assert.False(t, r.Refresh(), "unchanged topology")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	p.displays = twoDisplays()[:1]
	assert.True(t, r.Refresh(), "detach")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	p.displays = []Display{{ID: "dispR", Bounds: geom.Rect{X: 1920, W: 2560, H: 1440}}}
	assert.True(t, r.Refresh(), "bounds change")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// TestRegistryCancelStopsNotifications verifies a cancelled listener is not called again.
func TestRegistryCancelStopsNotifications(t *testing.T) {
	p := &fakeProvider{displays: twoDisplays()}
	r := NewRegistry(p.list, nil)
	r.List()

	var calls int32
	cancel := r.OnChange(func() { atomic.AddInt32(&calls, 1) })
	cancel()

	p.displays = nil
	r.Refresh()
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

// TestRegistryWatchStopsWithContext verifies Watch returns when its context ends.
func TestRegistryWatchStopsWithContext(t *testing.T) {
	p := &fakeProvider{displays: twoDisplays()}
	r := NewRegistry(p.list, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Watch(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
