// Package xsync holds small synchronization helpers shared by the bridge packages.
package xsync

import "sync"

// Semaphore bounds the number of simultaneous holders and can be resized while in use.
//
// It uses a sync.Cond rather than a buffered channel so the capacity can change at runtime, e.g.
// when the host reconfigures how many tokenization calls may run at the same time.
type Semaphore struct {
	cond              sync.Cond
	capacity, current int
}

// NewSemaphore returns a Semaphore that allows at most capacity simultaneous acquisitions.
// If capacity <= 0, there is no limit on acquisitions.
func NewSemaphore(capacity int) *Semaphore {
	return &Semaphore{
		cond:     sync.Cond{L: &sync.Mutex{}},
		capacity: capacity,
	}
}

// Acquire blocks until a slot is available under the current capacity.
// It must be matched by exactly one call to Semaphore.Release.
func (s *Semaphore) Acquire() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for s.capacity > 0 && s.current >= s.capacity {
		s.cond.Wait()
	}
	s.current++
}

// Release a slot previously taken with Semaphore.Acquire.
func (s *Semaphore) Release() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.current--
	if s.capacity <= 0 || s.current < s.capacity {
		s.cond.Signal()
	}
}

// Do runs fn while holding one slot.
func (s *Semaphore) Do(fn func() error) error {
	s.Acquire()
	defer s.Release()
	return fn()
}

// Capacity returns the current capacity, <= 0 meaning unlimited.
func (s *Semaphore) Capacity() int {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	return s.capacity
}

// InUse returns how many slots are currently held.
func (s *Semaphore) InUse() int {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	return s.current
}

// Resize changes the capacity.
//
// Growing (or removing the limit) wakes all waiters, so FIFO order may be lost. Shrinking never
// preempts current holders: they keep their slots until they Release.
func (s *Semaphore) Resize(newCapacity int) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	if newCapacity == s.capacity {
		return
	}
	growing := newCapacity <= 0 || (s.capacity > 0 && newCapacity > s.capacity)
	s.capacity = newCapacity
	if growing {
		s.cond.Broadcast()
	}
}
