package executor

import "sync"

// Lane serializes tasks on top of a Pool: tasks posted to one lane run one at a time,
// in posting order, while different lanes and plain pool tasks run concurrently.
type Lane struct {
	name string
	pool *Pool

	mu      sync.Mutex
	queue   []func()
	running bool
}

func NewLane(name string, pool *Pool) *Lane {
	return &Lane{name: name, pool: pool}
}

func (l *Lane) Name() string {
	return l.name
}

// Post queues task and returns immediately.
func (l *Lane) Post(task func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	l.schedule()
}

// Do runs task on the lane and waits for it. When the lane is idle the task runs on the
// calling goroutine. Do must not be called from a task already running on the same lane.
func (l *Lane) Do(task func()) {
	l.mu.Lock()
	if !l.running {
		l.running = true
		l.mu.Unlock()

		l.pool.run(task)

		l.mu.Lock()
		if len(l.queue) == 0 {
			l.running = false
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
		l.schedule()
		return
	}

	done := make(chan struct{})
	l.queue = append(l.queue, func() {
		defer close(done)
		task()
	})
	l.mu.Unlock()

	<-done
}

func (l *Lane) schedule() {
	if err := l.pool.Submit(l.drain); err != nil {
		// pool is gone, finish the backlog here so waiters in Do are released
		l.drain()
	}
}

func (l *Lane) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.running = false
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.pool.run(task)
	}
}
