package app

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// IDAllocator hands out time-derived ids: the current Unix millisecond, bumped
// past the last id issued and past the highest id already in use. Ids are
// therefore strictly increasing even when several items are created within
// the same millisecond or the clock steps backwards.
type IDAllocator struct {
	mu   sync.Mutex
	now  Clock
	last int64
}

// NewIDAllocator creates an allocator. A nil clock means time.Now.
func NewIDAllocator(now Clock) *IDAllocator {
	if now == nil {
		now = time.Now
	}

	return &IDAllocator{now: now}
}

// Next returns a new id greater than maxExisting.
func (a *IDAllocator) Next(maxExisting int64) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := max(a.now().UnixMilli(), a.last+1, maxExisting+1)
	a.last = id

	return id
}
