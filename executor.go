package async

import (
	"errors"
	"sync"

	queue "github.com/eapache/queue/v2"
)

// An Executor is a [Task] spawner, and a Task runner.
//
// When a Task is spawned, or a suspended coroutine is resumed, the coroutine
// is added into an internal queue. The Run method then pops and runs each of
// them from the queue, in arrival order, until the queue is emptied.
// It is done in a single-threaded manner. If one Task blocks, no other Tasks
// can run. The best practice is not to block.
//
// Manually calling the Run method is usually not desired.
// One would instead use the Autorun method to set up an autorun function to
// call the Run method automatically whenever a Task is spawned or resumed.
// The Executor never calls the autorun function twice at the same time.
//
// The zero Executor is ready for use.
type Executor struct {
	mu      sync.Mutex
	q       *queue.Queue[*Coroutine]
	running bool
	autorun func()
	err     error
}

// Autorun sets up an autorun function to call the Run method automatically
// whenever a [Task] is spawned or resumed.
//
// One must pass a function that calls the Run method.
//
// If f blocks, the Spawn method may block too.
// The best practice is not to block.
func (e *Executor) Autorun(f func()) {
	e.autorun = f
}

// Run pops and runs every coroutine in the queue until the queue is emptied.
//
// Run must not be called twice at the same time.
//
// If a root coroutine fails without anything to consume the failure, Run
// panics after the queue is drained.
func (e *Executor) Run() {
	e.mu.Lock()
	e.running = true

	for e.q != nil && e.q.Length() != 0 {
		co := e.q.Remove()
		e.runCoroutine(co)
	}

	e.running = false
	err := e.err
	e.err = nil
	e.mu.Unlock()

	if err != nil {
		panic(err)
	}
}

// Spawn creates a coroutine to work on t.
//
// The coroutine is added in a queue. To run it, either call the Run method,
// or call the Autorun method to set up an autorun function beforehand.
//
// Spawn is safe for concurrent use. It is the only entry point intended for
// use from other goroutines; external event sources (timers, I/O loops)
// settle futures and feed sequences by spawning a task that does so.
func (e *Executor) Spawn(t Task) {
	e.spawn(t, nil)
}

func (e *Executor) spawn(t Task, settle func(error)) {
	co := &Coroutine{executor: e, task: must(t), settle: settle}
	e.resumeCoroutine(co)
}

func (e *Executor) resumeCoroutine(co *Coroutine) {
	var autorun func()

	e.mu.Lock()

	if flag := co.flag; flag&flagEnqueued != 0 {
		co.flag = flag | flagResumed
		e.mu.Unlock()
		return
	} else {
		co.flag = flag | flagResumed | flagEnqueued
	}

	if !e.running && e.autorun != nil {
		e.running = true
		autorun = e.autorun
	}

	if e.q == nil {
		e.q = queue.New[*Coroutine]()
	}
	e.q.Add(co)
	e.mu.Unlock()

	if autorun != nil {
		autorun()
	}
}

func (e *Executor) runCoroutine(co *Coroutine) {
	flag := co.flag
	flag &^= flagEnqueued
	co.flag = flag

	switch {
	case flag&flagEnded != 0:
		// A coroutine that ended while still enqueued. Nothing to do.
	case flag&flagResumed != 0:
		e.mu.Unlock()
		co.run()
		e.mu.Lock()
	}
}

// reportFailure records a failure that no coroutine hook consumed.
// Run panics with it after the queue is drained.
func (e *Executor) reportFailure(err error) {
	e.mu.Lock()
	e.err = errors.Join(e.err, err)
	e.mu.Unlock()
}
