// Package turn provides an explicit "run at the end of the current turn" task
// queue for single-goroutine, re-entrant code.
//
// A turn begins when the outermost Enter call is made and ends when the
// matching Leave returns the depth to zero. Tasks posted at any depth are
// held until the turn ends and then run in FIFO order. Tasks may post more
// tasks; those run in the same drain loop after the ones already queued.
//
// Typical use wraps every public entry point of a component:
//
//	func (c *Component) Do() {
//	    c.queue.Enter()
//	    defer c.queue.Leave()
//	    // ... may call c.queue.Post(...) ...
//	}
//
// A Queue is not safe for concurrent use.
package turn

// Task is a unit of deferred work.
type Task func()

// Queue holds deferred tasks until the current turn unwinds.
type Queue struct {
	depth    int
	draining bool
	tasks    []Task
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enter marks the start of a (possibly nested) call.
func (q *Queue) Enter() {
	q.depth++
}

// Leave marks the end of a call started with Enter. When the outermost call
// leaves, pending tasks are drained before Leave returns.
//
// Leave is meant to be deferred; if a task panics the remaining tasks stay
// queued and run at the end of the next turn.
func (q *Queue) Leave() {
	if q.depth > 0 {
		q.depth--
	}
	if q.depth == 0 {
		q.Drain()
	}
}

// Post schedules a task for the end of the current turn. Outside of any turn
// the task runs before Post returns.
func (q *Queue) Post(task Task) {
	if task == nil {
		return
	}
	q.tasks = append(q.tasks, task)
	if q.depth == 0 {
		q.Drain()
	}
}

// Drain runs queued tasks until none remain. Nested calls while a drain is in
// progress return immediately; the outer loop picks up anything they posted.
func (q *Queue) Drain() {
	if q.draining {
		return
	}
	q.draining = true
	defer func() { q.draining = false }()

	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		task()
	}
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	return len(q.tasks)
}

// Depth returns the current call depth. Zero means no turn is in progress.
func (q *Queue) Depth() int {
	return q.depth
}
