package executor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"twitchbot/pkg/logger"
)

var (
	ErrPoolStopped = errors.New("worker pool is stopped")
	ErrQueueFull   = errors.New("worker pool queue is full")
)

// Pool is a fixed set of workers pulling tasks from one shared queue.
type Pool struct {
	log logger.Logger

	wg       sync.WaitGroup
	tasks    chan func()
	shutdown chan struct{}
	stopOnce sync.Once
}

func NewPool(log logger.Logger, workerCount, queueSize int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{
		log:      log,
		tasks:    make(chan func(), queueSize),
		shutdown: make(chan struct{}),
	}

	for range workerCount {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues a task, waiting for queue space until the pool is stopped.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.shutdown:
		return ErrPoolStopped
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.shutdown:
		return ErrPoolStopped
	}
}

// TrySubmit enqueues a task only if the queue has room right now.
func (p *Pool) TrySubmit(task func()) error {
	select {
	case <-p.shutdown:
		return ErrPoolStopped
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// AfterFunc submits task to the pool once d has elapsed. Stopping the returned timer cancels it.
func (p *Pool) AfterFunc(d time.Duration, task func()) *time.Timer {
	return time.AfterFunc(d, func() {
		if err := p.Submit(task); err != nil {
			p.log.Warn("Timer fired after pool shutdown", slog.String("error", err.Error()))
		}
	})
}

// Stop signals the workers and waits for the tasks they are running. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.shutdown)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.shutdown:
			return
		default:
		}

		select {
		case task := <-p.tasks:
			p.run(task)
		case <-p.shutdown:
			return
		}
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Critical("Recovered panic in pool task", fmt.Errorf("%v", r))
		}
	}()

	task()
}
