// Package workerpool runs bounded background maintenance work off the
// request path. The coordinator uses a single-worker, single-slot
// instance of it to schedule disk VACUUMs without blocking a caller's
// Put/Clear on them.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of maintenance work: an ID for logging and a function
// to run against a background context.
type Task struct {
	ID string
	Fn func(context.Context) error
}

// WorkerPool runs Tasks submitted via TrySubmit on a fixed number of
// goroutines reading off a bounded queue.
type WorkerPool struct {
	name      string
	taskQueue chan Task
	logger    *zap.Logger
	wg        sync.WaitGroup
	stopOnce  sync.Once
	stopChan  chan struct{}

	rejectedTasks uint64
}

// Config holds worker pool configuration.
type Config struct {
	Name       string
	MaxWorkers int
	QueueSize  int
	Logger     *zap.Logger
}

// NewWorkerPool creates a worker pool and starts its workers.
func NewWorkerPool(cfg *Config) *WorkerPool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	pool := &WorkerPool{
		name:      cfg.Name,
		taskQueue: make(chan Task, cfg.QueueSize),
		logger:    cfg.Logger,
		stopChan:  make(chan struct{}),
	}

	for i := 0; i < cfg.MaxWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	pool.logger.Info("worker pool started",
		zap.String("name", pool.name),
		zap.Int("max_workers", cfg.MaxWorkers),
		zap.Int("queue_size", cfg.QueueSize))

	return pool
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case task := <-p.taskQueue:
			p.executeTask(id, task)
		}
	}
}

func (p *WorkerPool) executeTask(workerID int, task Task) {
	start := time.Now()
	err := p.safeExecute(task)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("maintenance task failed",
			zap.String("pool", p.name),
			zap.Int("worker_id", workerID),
			zap.String("task_id", task.ID),
			zap.Duration("duration", duration),
			zap.Error(err))
		return
	}
	p.logger.Debug("maintenance task completed",
		zap.String("pool", p.name),
		zap.Int("worker_id", workerID),
		zap.String("task_id", task.ID),
		zap.Duration("duration", duration))
}

// safeExecute recovers a panicking task, since one bad maintenance
// function must not take down the whole pool's worker goroutine.
func (p *WorkerPool) safeExecute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			p.logger.Error("task panic recovered",
				zap.String("pool", p.name),
				zap.String("task_id", task.ID),
				zap.Any("panic", r))
		}
	}()

	return task.Fn(context.Background())
}

// TrySubmit attempts to enqueue task without blocking. It returns false
// if the pool is stopped or the queue is full — the caller is expected
// to treat that as "skip this round, try again later" rather than an
// error worth surfacing.
func (p *WorkerPool) TrySubmit(task Task) bool {
	select {
	case <-p.stopChan:
		atomic.AddUint64(&p.rejectedTasks, 1)
		return false
	default:
	}
	select {
	case p.taskQueue <- task:
		return true
	default:
		atomic.AddUint64(&p.rejectedTasks, 1)
		return false
	}
}

// Stop signals every worker to exit and waits up to timeout for them to
// drain in-flight tasks.
func (p *WorkerPool) Stop(timeout time.Duration) error {
	var err error
	p.stopOnce.Do(func() {
		close(p.stopChan)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.logger.Info("worker pool stopped", zap.String("name", p.name))
		case <-time.After(timeout):
			err = fmt.Errorf("worker pool '%s' stop timeout after %v", p.name, timeout)
			p.logger.Warn("worker pool stop timeout", zap.String("name", p.name))
		}
	})
	return err
}
