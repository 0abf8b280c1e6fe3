package xsync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreBoundsHolders(t *testing.T) {
	sem := NewSemaphore(2)
	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sem.Do(func() error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 0, sem.InUse())
}

func TestSemaphoreUnlimited(t *testing.T) {
	sem := NewSemaphore(0)
	for range 100 {
		sem.Acquire()
	}
	assert.Equal(t, 100, sem.InUse())
	for range 100 {
		sem.Release()
	}
	assert.Equal(t, 0, sem.InUse())
}

func TestSemaphoreResizeWakesWaiters(t *testing.T) {
	sem := NewSemaphore(1)
	sem.Acquire()

	acquired := make(chan struct{})
	go func() {
		sem.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should block at capacity 1")
	case <-time.After(20 * time.Millisecond):
	}

	sem.Resize(2)
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Resize(2) did not release the waiter")
	}
	require.Equal(t, 2, sem.Capacity())
	assert.Equal(t, 2, sem.InUse())
}
