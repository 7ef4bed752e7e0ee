package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecovery(t *testing.T) {
	pool := NewPool(2, 10)

	var completed atomic.Int32
	pool.Submit(func() { panic("intentional panic for testing") })
	pool.Submit(func() { panic("intentional panic for testing") })
	for i := 0; i < 3; i++ {
		pool.Submit(func() { completed.Add(1) })
	}
	pool.Stop()

	assert.Equal(t, int32(3), completed.Load(), "workers survive a panicking task")
	stats := pool.GetStats()
	assert.Equal(t, int64(2), stats.Failed)
	assert.Equal(t, int64(5), stats.Executed)
}

func TestStopWaitsForQueuedTasks(t *testing.T) {
	pool := NewPool(1, 10)

	var completed atomic.Int32
	started := make(chan struct{})
	pool.Submit(func() {
		close(started)
		time.Sleep(100 * time.Millisecond)
		completed.Add(1)
	})
	pool.Submit(func() { completed.Add(1) })
	<-started

	begin := time.Now()
	pool.Stop()
	assert.GreaterOrEqual(t, time.Since(begin), 50*time.Millisecond)
	assert.Equal(t, int32(2), completed.Load(), "queued work is drained on stop")
}

func TestQueueFullDropPolicy(t *testing.T) {
	pool := NewPool(1, 2)
	release := make(chan struct{})
	started := make(chan struct{})

	require.True(t, pool.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	assert.True(t, pool.Submit(func() {}))
	assert.True(t, pool.Submit(func() {}))
	assert.False(t, pool.Submit(func() {}), "queue of 2 is full")

	close(release)
	pool.Stop()
	assert.Equal(t, int64(1), pool.GetStats().Dropped)
}

func TestConcurrentSubmit(t *testing.T) {
	pool := NewPool(4, 2000)

	var executed atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				pool.Submit(func() { executed.Add(1) })
			}
		}()
	}
	wg.Wait()
	pool.Stop()

	stats := pool.GetStats()
	assert.Equal(t, int64(1000), stats.Submitted)
	assert.Equal(t, int64(1000), executed.Load())
}

func TestSubmitAfterStop(t *testing.T) {
	pool := NewPool(2, 10)
	pool.Stop()
	pool.Stop()

	assert.False(t, pool.Submit(func() {}))
	assert.Equal(t, int64(1), pool.GetStats().Dropped)
}

func TestSubmitNilTask(t *testing.T) {
	pool := NewPool(2, 10)
	defer pool.Stop()

	assert.False(t, pool.Submit(nil))
	assert.Zero(t, pool.GetStats().Submitted)
}

func TestDefaultPoolConfig(t *testing.T) {
	pool := NewPool(0, 0)
	defer pool.Stop()

	stats := pool.GetStats()
	assert.Positive(t, stats.Workers)
	assert.Equal(t, 1000, cap(pool.queue))
}
