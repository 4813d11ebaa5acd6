package testutil

import (
	"sync"

	"github.com/frudas24/dynamouse/internal/pointer"
)

// FakeMotion records motion subscriptions and lets tests emit motion.
type FakeMotion struct {
	mu           sync.Mutex
	subs         map[pointer.DeviceID]map[int]pointer.MotionFunc
	next         int
	Subscribes   int
	Unsubscribes int
}

// NewFakeMotion returns an empty motion source.
func NewFakeMotion() *FakeMotion {
	return &FakeMotion{subs: make(map[pointer.DeviceID]map[int]pointer.MotionFunc)}
}

// OnMotion registers fn for id.
func (f *FakeMotion) OnMotion(id pointer.DeviceID, fn pointer.MotionFunc) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.next
	f.next++
	if f.subs[id] == nil {
		f.subs[id] = make(map[int]pointer.MotionFunc)
	}
	f.subs[id][key] = fn
	f.Subscribes++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[id], key)
			if len(f.subs[id]) == 0 {
				delete(f.subs, id)
			}
			f.Unsubscribes++
		})
	}
}

// Emit delivers motion to every live subscriber of id.
func (f *FakeMotion) Emit(id pointer.DeviceID, dx, dy int) {
	f.mu.Lock()
	fns := make([]pointer.MotionFunc, 0, len(f.subs[id]))
	for _, fn := range f.subs[id] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(id, dx, dy)
	}
}

// Subscribed reports whether id has a live subscription.
func (f *FakeMotion) Subscribed(id pointer.DeviceID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[id]) > 0
}

// Counts returns the subscribe and unsubscribe totals.
func (f *FakeMotion) Counts() (subscribes, unsubscribes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Subscribes, f.Unsubscribes
}
