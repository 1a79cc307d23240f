package async

type futureState uint8

const (
	futurePending futureState = iota
	futureResolved
	futureRejected
)

// A Future is a single-assignment cell representing a value of type T, or
// an error, that will become available at most once.
//
// A future is settled by calling exactly one of Resolve and Reject, from
// whichever code path produces the outcome: the task that computed it, a
// timer, an I/O loop, or a collaborator cancelling the work out-of-band.
// Settling an already-settled future is a usage error and panics; callers
// that may race a producer gate on Done first.
//
// A future is consumed in exactly one of two ways, never both:
//   - a single coroutine suspends on it via the [Future.Await] task and is
//     resumed when it settles, or
//   - callbacks attached via [Future.Then] and [Future.Catch] are invoked
//     when it settles (or inline on attach, if it already has).
//
// Settling a future runs consumer logic before the settling call returns.
// That logic can itself settle other futures, arbitrarily deep; the
// machinery is safe for such re-entry on a single executor.
//
// A Future must not be shared by more than one [Executor].
type Future[T any] struct {
	state    futureState
	value    T
	hasValue bool
	err      error
	co       *Coroutine
	onValue  func(T)
	onError  func(error)
}

// NewFuture creates a new pending future.
//
// The returned pointer is the settlement cell itself: the producing side and
// the consuming side hold the same pointer, and the cell lives as long as
// any of them does.
func NewFuture[T any]() *Future[T] {
	return new(Future[T])
}

// Resolved creates a future already resolved with v.
func Resolved[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v)
	return f
}

// Rejected creates a future already rejected with err.
func Rejected[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Reject(err)
	return f
}

// Done reports whether f has settled, regardless of whether the settlement
// has been consumed yet.
func (f *Future[T]) Done() bool {
	return f.state != futurePending
}

// Resolve settles f with v.
//
// If a coroutine is suspended on f, it is resumed within this call.
// Else, if a [Future.Then] callback is attached, it is invoked with v, and
// the stored value is cleared; a value is delivered exactly once.
// Else, v is stored for a not-yet-attached consumer.
//
// Resolve panics if f has already settled.
func (f *Future[T]) Resolve(v T) {
	if f.state != futurePending {
		panic("async: future already settled")
	}
	f.state = futureResolved
	f.value = v
	f.hasValue = true
	switch {
	case f.co != nil:
		f.co.Resume()
	case f.onValue != nil:
		f.onValue(f.take())
	}
}

// Reject settles f with err.
//
// If a coroutine is suspended on f, it is resumed within this call and
// observes err at its await point.
// Else, if a [Future.Catch] callback is attached, it is invoked with err.
// Else, err is stored for a not-yet-attached consumer.
//
// Reject panics if err is nil or if f has already settled.
func (f *Future[T]) Reject(err error) {
	if err == nil {
		panic("async: Reject called with nil error")
	}
	if f.state != futurePending {
		panic("async: future already settled")
	}
	f.state = futureRejected
	f.err = err
	switch {
	case f.co != nil:
		f.co.Resume()
	case f.onError != nil:
		f.onError(err)
	}
}

// Then attaches a callback to receive the value of f.
// If f has already resolved, the callback is invoked inline before Then
// returns. If f has settled with an error, the callback is never invoked.
//
// Then panics if a coroutine is already suspended on f; a future is consumed
// either by awaiting or by callbacks, never both.
func (f *Future[T]) Then(fn func(v T)) {
	if fn == nil {
		panic("async: Then called with nil callback")
	}
	if f.co != nil {
		panic("async: future already awaited")
	}
	f.onValue = fn
	if f.hasValue {
		fn(f.take())
	}
}

// Catch attaches a callback to receive the error of f.
// If f has already rejected, the callback is invoked inline before Catch
// returns. If f has settled with a value, the callback is never invoked.
//
// Catch panics if a coroutine is already suspended on f.
func (f *Future[T]) Catch(fn func(err error)) {
	if fn == nil {
		panic("async: Catch called with nil callback")
	}
	if f.co != nil {
		panic("async: future already awaited")
	}
	f.onError = fn
	if f.state == futureRejected {
		fn(f.err)
	}
}

// Await returns a [Task] that awaits the settlement of f, and then ends.
//
// If f resolves, the value is stored into *p (when p is not nil) and
// consumed. If f rejects, the task fails with the stored error, as if the
// failure were local to the awaiting coroutine.
//
// Only one coroutine may ever await a given future.
func (f *Future[T]) Await(p *T) Task {
	return func(co *Coroutine) Result {
		if !f.ready() {
			return co.Await(f).Reiterate()
		}
		if f.state == futureRejected {
			return co.Throw(f.err)
		}
		v := f.take()
		if p != nil {
			*p = v
		}
		return co.End()
	}
}

// ready reports whether a settlement is available for consumption.
func (f *Future[T]) ready() bool {
	return f.hasValue || f.state == futureRejected
}

// take consumes the stored value.
func (f *Future[T]) take() T {
	if !f.hasValue {
		panic("async: future value already consumed")
	}
	v := f.value
	var zero T
	f.value = zero
	f.hasValue = false
	return v
}

func (f *Future[T]) addListener(co *Coroutine) {
	if f.onValue != nil || f.onError != nil {
		panic("async: future already consumed by callbacks")
	}
	if f.co != nil && f.co != co {
		panic("async: future already awaited by another coroutine")
	}
	f.co = co
}

func (f *Future[T]) removeListener(co *Coroutine) {
	if f.co == co {
		f.co = nil
	}
}

// Async spawns a task on e whose completion settles the returned future.
//
// The task body receives the future and runs eagerly, up to its first
// suspension point, before Async returns (provided e autoruns). The body
// settles the future itself, typically by calling Resolve at the end; if
// the body fails (via [Coroutine.Throw] or a panic) while the future is
// still pending, the future is rejected with the failure.
//
// A body may also end while the future is still pending, leaving the
// settlement to another holder of the future, such as a timer.
func Async[T any](e *Executor, f func(co *Coroutine, future *Future[T]) Result) *Future[T] {
	if f == nil {
		panic("async: Async called with nil function")
	}
	future := NewFuture[T]()
	e.spawn(
		func(co *Coroutine) Result { return f(co, future) },
		func(err error) {
			if err == nil {
				return
			}
			if !future.Done() {
				future.Reject(err)
				return
			}
			e.reportFailure(err)
		},
	)
	return future
}
