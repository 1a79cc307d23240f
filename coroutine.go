package async

type action uint8

const (
	_ action = iota
	doEnd
	doYield
	doTransition
	doTailTransition // Do transition and remove controller.
	doBreak
	doContinue
	doFail
)

const (
	flagResumed = 1 << iota
	flagEnqueued
	flagEnded
)

// A Coroutine is an execution of code, similar to a goroutine but cooperative
// and stackless.
//
// A coroutine is created with a function called [Task].
// A coroutine's job is to end the task.
// When an [Executor] spawns a coroutine with a task, it runs the coroutine by
// calling the task function with the coroutine as the argument.
// The return value determines whether to end the coroutine or to yield it
// so that it could resume later.
//
// In order for a coroutine to resume, the coroutine must watch at least one
// [Event] (e.g. [Signal] or [Future]), when calling the task function.
// A notification of such an event resumes the coroutine.
// When a coroutine is resumed, the executor runs the coroutine again.
//
// A coroutine can also make a transition to work on another task according to
// the return value of the task function.
// A coroutine can transition from one task to another until a task ends it.
type Coroutine struct {
	flag        uint8
	executor    *Executor
	task        Task
	err         error
	deps        map[Event]struct{}
	controllers []controller

	// settle consumes the outcome when the coroutine ends.
	// Set by Async and Generate to route unhandled failures into Reject.
	settle func(err error)
}

// Executor returns the executor that spawned co.
func (co *Coroutine) Executor() *Executor {
	return co.executor
}

// Ended reports whether co has already ended.
func (co *Coroutine) Ended() bool {
	return co.flag&flagEnded != 0
}

// Resume resumes co.
func (co *Coroutine) Resume() {
	co.executor.resumeCoroutine(co)
}

// Watch watches some events so that, when any of them notifies, co resumes.
func (co *Coroutine) Watch(ev ...Event) {
	if co.flag&flagEnded != 0 {
		return
	}
	for _, d := range ev {
		deps := co.deps
		if deps == nil {
			deps = make(map[Event]struct{})
			co.deps = deps
		}
		deps[d] = struct{}{}
		d.addListener(co)
	}
}

func (co *Coroutine) run() {
	var res Result

	for {
		co.clearDeps()
		co.flag &^= flagResumed

		res = co.step()

		if res.action != doYield && res.action != doTransition {
			res = co.unwind(res)
		}

		if res.task != nil {
			co.task = res.task
		}

		if res.action != doTransition {
			break
		}

		if res.controller.kind != 0 {
			co.controllers = append(co.controllers, res.controller)
		}
	}

	if res.action == doYield {
		return
	}

	co.flag |= flagEnded
	co.clearDeps()

	err := co.err
	if settle := co.settle; settle != nil {
		co.settle = nil
		settle(err)
	} else if err != nil {
		co.executor.reportFailure(err)
	}
}

// step runs the current task, converting a panic into a failure so that
// the coroutine can unwind and deliver it like any other error.
func (co *Coroutine) step() (res Result) {
	done := false
	defer func() {
		if done {
			return
		}
		v := recover()
		if v == nil {
			panic("async: tasks must not call runtime.Goexit")
		}
		res = co.Throw(newPanicError(v))
	}()
	res = co.task(co)
	done = true
	return res
}

func (co *Coroutine) unwind(res Result) Result {
	controllers := co.controllers
	for len(controllers) != 0 {
		i := len(controllers) - 1
		c := &controllers[i]
		res = c.negotiate(co, res)
		if res.action != doTransition {
			controllers[i] = controller{}
			controllers = controllers[:i]
			co.controllers = controllers
		}
		if res.action == doTransition || res.action == doTailTransition {
			break
		}
	}
	switch res.action {
	case doBreak:
		panic("async: unhandled break action")
	case doContinue:
		panic("async: unhandled continue action")
	case doTailTransition:
		res.action = doTransition
	}
	return res
}

func (co *Coroutine) clearDeps() {
	deps := co.deps
	for d := range deps {
		delete(deps, d)
		d.removeListener(co)
	}
}

// Result is the type of the return value of a [Task] function.
// A Result determines what next for a coroutine to do after running a task.
//
// A Result can be created by calling one of the following methods:
//   - [Coroutine.Await]: for creating a [PendingResult] that can be
//     transformed into a [Result] with one of its methods, which will then
//     cause the running coroutine to yield;
//   - [Coroutine.Yield]: for yielding a coroutine with additional events to
//     watch and, when resumed, reiterating the running task;
//   - [Coroutine.Transition]: for making a transition to work on another task;
//   - [Coroutine.End]: for ending the running task of a coroutine;
//   - [Coroutine.Break]: for breaking a [Loop] (or [LoopN]);
//   - [Coroutine.Continue]: for continuing a [Loop] (or [LoopN]);
//   - [Coroutine.Throw]: for failing a coroutine with an error.
type Result struct {
	action     action
	task       Task       // used by doYield and doTransition
	controller controller // used by doTransition only
}

// PendingResult is the return type of the [Coroutine.Await] method.
// A PendingResult is an intermediate value that must be transformed into
// a [Result] with one of its methods before returning from a [Task].
type PendingResult struct {
	res Result
}

// Reiterate returns a [Result] that will cause the running coroutine to yield
// and, when resumed, reiterate the running task.
func (pr PendingResult) Reiterate() Result {
	return pr.res
}

// Then returns a [Result] that will cause the running coroutine to yield and,
// when resumed, make a transition to work on another [Task].
func (pr PendingResult) Then(t Task) Result {
	pr.res.task = must(t)
	return pr.res
}

// End returns a [Result] that will cause the running coroutine to yield and,
// when resumed, end the running task.
func (pr PendingResult) End() Result {
	return pr.Then(End())
}

// Await returns a [PendingResult] that can be transformed into a [Result]
// with one of its methods, which will then cause co to yield.
// Await also accepts additional events to watch.
func (co *Coroutine) Await(ev ...Event) PendingResult {
	if len(ev) != 0 {
		co.Watch(ev...)
	}
	return PendingResult{res: Result{action: doYield}}
}

// Yield returns a [Result] that will cause co to yield and, when co is
// resumed, reiterate the running task.
// Yield also accepts additional events to watch.
func (co *Coroutine) Yield(ev ...Event) Result {
	return co.Await(ev...).Reiterate()
}

// Transition returns a [Result] that will cause co to make a transition to
// work on t.
func (co *Coroutine) Transition(t Task) Result {
	return Result{action: doTransition, task: must(t)}
}

// End returns a [Result] that will cause co to end its current running task.
func (co *Coroutine) End() Result {
	return Result{action: doEnd}
}

// Break returns a [Result] that will cause co to break a [Loop] (or [LoopN]).
func (co *Coroutine) Break() Result {
	return Result{action: doBreak}
}

// Continue returns a [Result] that will cause co to continue a [Loop]
// (or [LoopN]).
func (co *Coroutine) Continue() Result {
	return Result{action: doContinue}
}

// Throw returns a [Result] that will cause co to fail with err.
// The failure unwinds every [Loop], [Block] and [Task.Then] in progress.
// When a failing coroutine ends, the error is delivered to whatever is bound
// to the coroutine's completion: [Async] rejects its future, [Generate]
// rejects its sequence, and a plain [Executor.Spawn] coroutine causes
// [Executor.Run] to panic.
func (co *Coroutine) Throw(err error) Result {
	if err == nil {
		panic("async: Throw called with nil error")
	}
	co.err = err
	return Result{action: doFail}
}

type controllerKind int8

const (
	_ controllerKind = iota
	thenController
	blockController
	loopController
)

type controller struct {
	kind  controllerKind
	task  Task   // used by thenController and loopController
	tasks []Task // used by blockController only
}

func (c *controller) negotiate(co *Coroutine, res Result) Result {
	switch c.kind {
	case thenController:
		if res.action != doEnd {
			return res
		}
		return Result{action: doTailTransition, task: c.task}
	case blockController:
		if res.action != doEnd || len(c.tasks) == 0 {
			return res
		}
		t := c.tasks[0]
		c.tasks = c.tasks[1:]
		a := doTransition
		if len(c.tasks) == 0 {
			a = doTailTransition
		}
		return Result{action: a, task: must(t)}
	case loopController:
		switch res.action {
		case doEnd, doContinue:
			return co.Transition(c.task)
		case doBreak:
			return co.End()
		default:
			return res
		}
	default:
		panic("async: internal error: unknown controller")
	}
}

// A Task is a piece of work that a coroutine is given to do when it is
// spawned. The return value of a task, a [Result], determines what next for
// a coroutine to do.
type Task func(co *Coroutine) Result

// Then returns a [Task] that first works on t, then next after t ends.
//
// To chain multiple tasks, use [Block] function.
func (t Task) Then(next Task) Task {
	must(next)
	return func(co *Coroutine) Result {
		return Result{
			action:     doTransition,
			task:       must(t),
			controller: controller{kind: thenController, task: next},
		}
	}
}

// Do returns a [Task] that calls f, and then ends.
func Do(f func()) Task {
	return func(co *Coroutine) Result {
		f()
		return co.End()
	}
}

// End returns a [Task] that ends without doing anything.
func End() Task {
	return (*Coroutine).End
}

// Await returns a [Task] that awaits some events until any of them notifies,
// and then ends.
// If ev is empty, Await returns a [Task] that never ends.
func Await(ev ...Event) Task {
	return func(co *Coroutine) Result {
		return co.Await(ev...).End()
	}
}

// Block returns a [Task] that runs each of the given tasks in sequence.
// When one task ends, Block runs another.
func Block(s ...Task) Task {
	switch len(s) {
	case 0:
		return End()
	case 1:
		return s[0]
	case 2:
		return s[0].Then(s[1])
	}
	return func(co *Coroutine) Result {
		return Result{
			action:     doTransition,
			task:       must(s[0]),
			controller: controller{kind: blockController, tasks: s[1:]},
		}
	}
}

// Break returns a [Task] that breaks a [Loop] (or [LoopN]).
func Break() Task {
	return (*Coroutine).Break
}

// Continue returns a [Task] that continues a [Loop] (or [LoopN]).
func Continue() Task {
	return (*Coroutine).Continue
}

// Loop returns a [Task] that forms a loop, which would run t repeatedly.
// Both [Coroutine.Break] and [Break] can break this loop early.
// Both [Coroutine.Continue] and [Continue] can continue this loop early.
func Loop(t Task) Task {
	must(t)
	return func(co *Coroutine) Result {
		return Result{
			action:     doTransition,
			task:       t,
			controller: controller{kind: loopController, task: t},
		}
	}
}

// LoopN returns a [Task] that forms a loop, which would run t repeatedly
// for n times.
// Both [Coroutine.Break] and [Break] can break this loop early.
// Both [Coroutine.Continue] and [Continue] can continue this loop early.
func LoopN(n int, t Task) Task {
	must(t)
	return func(co *Coroutine) Result {
		i := 0
		f := func(co *Coroutine) Result {
			if i < n {
				i++
				return co.Transition(t)
			}
			return co.Break()
		}
		return Result{
			action:     doTransition,
			task:       f,
			controller: controller{kind: loopController, task: f},
		}
	}
}

// Throw returns a [Task] that fails the coroutine that runs it with err.
func Throw(err error) Task {
	return func(co *Coroutine) Result {
		return co.Throw(err)
	}
}

func must(t Task) Task {
	if t == nil {
		panic("async: nil Task")
	}
	return t
}
