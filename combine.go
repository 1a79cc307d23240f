package async

import "errors"

// ErrAllRejected is the synthetic error with which [Any] rejects once every
// input future has failed. The individual reasons are not preserved.
var ErrAllRejected = errors.New("async: all futures rejected")

// All returns a future that resolves to the values of all the given futures,
// in input order, once every one of them has resolved.
//
// If any input rejects, the returned future rejects with the error of
// whichever input failed first in completion order (ties broken by input
// order); settlements of the remaining inputs are observed but no longer
// alter the result.
//
// All panics if called with no futures; resolving to an empty result would
// mask caller mistakes.
func All[T any](futures ...*Future[T]) *Future[[]T] {
	if len(futures) == 0 {
		panic("async: All called with no futures")
	}
	result := NewFuture[[]T]()
	state := &struct {
		values   []T
		pending  int
		rejected bool
	}{
		values:  make([]T, len(futures)),
		pending: len(futures),
	}
	for i, f := range futures {
		i := i
		f.Then(func(v T) {
			if state.rejected {
				return
			}
			state.values[i] = v
			if state.pending--; state.pending == 0 {
				result.Resolve(state.values)
			}
		})
		f.Catch(func(err error) {
			if state.rejected {
				return
			}
			state.rejected = true
			result.Reject(err)
		})
	}
	return result
}

// Any returns a future that resolves with the value of whichever input
// settles successfully first, in completion order. Early rejections are
// waited past. Only once every input has failed does the returned future
// reject, with [ErrAllRejected].
//
// Any panics if called with no futures.
func Any[T any](futures ...*Future[T]) *Future[T] {
	if len(futures) == 0 {
		panic("async: Any called with no futures")
	}
	result := NewFuture[T]()
	state := &struct {
		pending  int
		resolved bool
	}{
		pending: len(futures),
	}
	for _, f := range futures {
		f.Then(func(v T) {
			if state.resolved {
				return
			}
			state.resolved = true
			result.Resolve(v)
		})
		f.Catch(func(err error) {
			if state.resolved {
				return
			}
			if state.pending--; state.pending == 0 {
				result.Reject(ErrAllRejected)
			}
		})
	}
	return result
}

// Race returns a future that settles exactly like whichever input settles
// first, in completion order, value or error alike. All later settlements
// among the remaining inputs are ignored.
//
// Race panics if called with no futures; a race between no futures would
// never settle.
func Race[T any](futures ...*Future[T]) *Future[T] {
	if len(futures) == 0 {
		panic("async: Race called with no futures")
	}
	result := NewFuture[T]()
	state := &struct {
		finished bool
	}{}
	for _, f := range futures {
		f.Then(func(v T) {
			if state.finished {
				return
			}
			state.finished = true
			result.Resolve(v)
		})
		f.Catch(func(err error) {
			if state.finished {
				return
			}
			state.finished = true
			result.Reject(err)
		})
	}
	return result
}
