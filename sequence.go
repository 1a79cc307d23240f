package async

import (
	"errors"

	queue "github.com/eapache/queue/v2"
)

// ErrOverlappingNext is the error with which [Sequence.Next] rejects a pull
// issued while another pull is still unresolved. The earlier pull is not
// affected.
var ErrOverlappingNext = errors.New("async: overlapping Next calls are not allowed")

// Void is the completion type of sequences that carry no completion value.
type Void struct{}

type seqPhase uint8

const (
	seqRunning seqPhase = iota
	seqDone
	seqFailed
)

// A Sequence is an ordered, possibly-infinite, producer-pushed stream of
// T values, terminated by a single completion value of type R or by an
// error.
//
// The producer side calls [Sequence.Feed] zero or more times, then exactly
// one of [Sequence.Finish] and [Sequence.Reject]. The consumer side calls
// [Sequence.Next] one pull at a time. Values produced before they are
// requested wait in a buffer; a pull issued before the next value exists
// waits as a pending future, and the next Feed hands its value to it
// directly. Either way values arrive in strict production order.
//
// Termination is sticky: once finished, every subsequent pull resolves to
// the end marker (an error is delivered exactly once, then end markers).
//
// Sequences with no meaningful completion value use R = [Void].
//
// A Sequence must not be shared by more than one [Executor].
type Sequence[T, R any] struct {
	values  *queue.Queue[T]
	pending *Future[Option[T]]
	err     error // failure not yet delivered to a pull
	phase   seqPhase
	ret     R
}

// NewSequence creates a new, empty, unfinished sequence.
func NewSequence[T, R any]() *Sequence[T, R] {
	return &Sequence[T, R]{values: queue.New[T]()}
}

// Next requests the next value. The returned future resolves with
// [Some] of the value, or with [None] once no more values will ever come,
// or rejects with the producer's error.
//
// At most one pull may be outstanding; a second Next while one is pending
// returns a future rejected with [ErrOverlappingNext].
func (s *Sequence[T, R]) Next() *Future[Option[T]] {
	f := NewFuture[Option[T]]()
	switch {
	case s.values.Length() != 0:
		f.Resolve(Some(s.values.Remove()))
	case s.err != nil:
		err := s.err
		s.err = nil
		f.Reject(err)
	case s.phase != seqRunning:
		f.Resolve(None[T]())
	case s.pending != nil:
		f.Reject(ErrOverlappingNext)
	default:
		s.pending = f
	}
	return f
}

// Feed pushes one value. If a pull is pending, the value is handed to it
// directly, bypassing the buffer; otherwise it is appended to the buffer.
//
// Feed panics if the sequence has already finished.
func (s *Sequence[T, R]) Feed(v T) {
	if s.phase != seqRunning {
		panic("async: Feed on a finished sequence")
	}
	if p := s.pending; p != nil {
		s.pending = nil
		p.Resolve(Some(v))
		return
	}
	s.values.Add(v)
}

// Finish marks the sequence finished with completion value v.
// A pending pull, if any, resolves to the end marker.
//
// Finish panics if the sequence has already finished.
func (s *Sequence[T, R]) Finish(v R) {
	if s.phase != seqRunning {
		panic("async: sequence already finished")
	}
	// The completion value must be stored before the pending pull resolves,
	// so that a consumer resumed by this call can already read it.
	s.phase = seqDone
	s.ret = v
	if p := s.pending; p != nil {
		s.pending = nil
		p.Resolve(None[T]())
	}
}

// Reject marks the sequence finished with err. No further values can be
// produced. If a pull is pending, err is handed to it; otherwise err is
// stored and delivered to the next pull. Either way the error is observed
// exactly once; pulls after that resolve to the end marker.
//
// Reject panics if err is nil or if the sequence has already finished.
func (s *Sequence[T, R]) Reject(err error) {
	if err == nil {
		panic("async: Reject called with nil error")
	}
	if s.phase != seqRunning {
		panic("async: sequence already finished")
	}
	s.phase = seqFailed
	if p := s.pending; p != nil {
		s.pending = nil
		p.Reject(err)
		return
	}
	s.err = err
}

// Finished reports whether the sequence has terminated, normally or with
// an error.
func (s *Sequence[T, R]) Finished() bool {
	return s.phase != seqRunning
}

// Return returns the completion value.
//
// Return panics unless the sequence finished normally via [Sequence.Finish];
// before termination, or after [Sequence.Reject], there is no completion
// value to return.
func (s *Sequence[T, R]) Return() R {
	if s.phase != seqDone {
		panic("async: sequence has not finished normally")
	}
	return s.ret
}

// ForEach returns a [Task] that pulls values one at a time, calling f for
// each, until the end marker, and then ends. If the sequence fails, the
// task fails with the sequence's error.
func (s *Sequence[T, R]) ForEach(f func(v T)) Task {
	if f == nil {
		panic("async: ForEach called with nil function")
	}
	return Loop(func(co *Coroutine) Result {
		var item Option[T]
		return co.Transition(s.Next().Await(&item).Then(func(co *Coroutine) Result {
			v, ok := item.Get()
			if !ok {
				return co.Break()
			}
			f(v)
			return co.Continue()
		}))
	})
}

// Generate spawns a producer task on e bound to the returned sequence.
//
// The task body receives the sequence and runs eagerly, up to its first
// suspension point, before Generate returns (provided e autoruns). The body
// feeds values and finishes the sequence itself; if it ends without having
// finished it, the sequence is finished with the zero completion value, and
// if it fails (via [Coroutine.Throw] or a panic) first, the sequence is
// rejected with the failure.
func Generate[T, R any](e *Executor, f func(co *Coroutine, seq *Sequence[T, R]) Result) *Sequence[T, R] {
	if f == nil {
		panic("async: Generate called with nil function")
	}
	seq := NewSequence[T, R]()
	e.spawn(
		func(co *Coroutine) Result { return f(co, seq) },
		func(err error) {
			switch {
			case err == nil && !seq.Finished():
				var zero R
				seq.Finish(zero)
			case err != nil && !seq.Finished():
				seq.Reject(err)
			case err != nil:
				e.reportFailure(err)
			}
		},
	)
	return seq
}
