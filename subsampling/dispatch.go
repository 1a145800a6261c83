package subsampling

import "sync"

// Dispatcher runs functions on the UI thread.
type Dispatcher interface {
	Post(fn func())
}

// MainQueue collects posted functions until the UI thread drains them,
// typically once per frame.
type MainQueue struct {
	mu    sync.Mutex
	tasks []func()
}

func (q *MainQueue) Post(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// Drain runs every queued function in posting order and returns how many
// ran. Functions posted while draining run on the next call.
func (q *MainQueue) Drain() int {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Len returns the number of queued functions.
func (q *MainQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
