// Package worker runs background jobs on a bounded goroutine pool.
package worker

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Task 异步任务
type Task func()

// Stats 协程池统计
type Stats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Executed  int64 `json:"executed"`
	Failed    int64 `json:"failed"`  // tasks that panicked
	Dropped   int64 `json:"dropped"` // rejected because the queue was full or the pool stopped
}

// Pool 协程池
type Pool struct {
	workers int
	queue   chan Task
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	submitted atomic.Int64
	executed  atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewPool starts workers goroutines reading from a queue of queueSize.
// Zero values pick runtime.NumCPU() workers and a queue of 1000.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	logrus.WithField("workers", workers).Debug("[Worker] pool started")
	return p
}

// Submit 提交任务; it never blocks and reports false when the task was dropped.
func (p *Pool) Submit(task Task) bool {
	if task == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		p.dropped.Add(1)
		return false
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	default:
		p.dropped.Add(1)
		logrus.Warn("[Worker] queue is full, task dropped")
		return false
	}
}

// Stop rejects new tasks, runs the queued ones and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	logrus.Debug("[Worker] pool stopped")
}

// GetStats 获取统计信息
func (p *Pool) GetStats() Stats {
	return Stats{
		Workers:   p.workers,
		Queued:    len(p.queue),
		Submitted: p.submitted.Load(),
		Executed:  p.executed.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(task)
	}
}

// run 执行任务并捕获 panic
func (p *Pool) run(task Task) {
	defer func() {
		p.executed.Add(1)
		if r := recover(); r != nil {
			p.failed.Add(1)
			logrus.WithField("panic", r).Error("[Worker] panic recovered in task")
		}
	}()
	task()
}
