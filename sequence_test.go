package async_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	async "github.com/chemwolf6922/js-style-co-routine"
)

func nextValue[T, R any](t *testing.T, s *async.Sequence[T, R]) (T, bool) {
	t.Helper()

	var (
		got  async.Option[T]
		done bool
	)
	s.Next().Then(func(v async.Option[T]) {
		got = v
		done = true
	})
	require.True(t, done, "pull did not complete synchronously")
	return got.Get()
}

func nextError[T, R any](t *testing.T, s *async.Sequence[T, R]) error {
	t.Helper()

	var got error
	s.Next().Catch(func(err error) { got = err })
	require.Error(t, got, "pull did not fail synchronously")
	return got
}

func TestSequenceBuffering(t *testing.T) {
	t.Run("values come out in feed order", func(t *testing.T) {
		s := async.NewSequence[int, async.Void]()
		s.Feed(1)
		s.Feed(2)
		s.Feed(3)

		for want := 1; want <= 3; want++ {
			v, ok := nextValue(t, s)
			require.True(t, ok)
			require.Equal(t, want, v)
		}
	})
	t.Run("a pending pull takes a fed value directly", func(t *testing.T) {
		s := async.NewSequence[int, async.Void]()

		var got async.Option[int]
		s.Next().Then(func(v async.Option[int]) { got = v })
		_, ok := got.Get()
		require.False(t, ok)

		s.Feed(42)
		v, ok := got.Get()
		require.True(t, ok)
		require.Equal(t, 42, v)

		// The hand-off bypasses the buffer entirely.
		s.Finish(async.Void{})
		_, ok = nextValue(t, s)
		require.False(t, ok)
	})
	t.Run("buffered values survive termination", func(t *testing.T) {
		s := async.NewSequence[int, async.Void]()
		s.Feed(1)
		s.Finish(async.Void{})

		v, ok := nextValue(t, s)
		require.True(t, ok)
		require.Equal(t, 1, v)

		_, ok = nextValue(t, s)
		require.False(t, ok)
	})
}

func TestSequenceOverlappingNext(t *testing.T) {
	s := async.NewSequence[int, async.Void]()

	var first async.Option[int]
	s.Next().Then(func(v async.Option[int]) { first = v })

	require.ErrorIs(t, nextError(t, s), async.ErrOverlappingNext)

	// The first pull is unaffected by the failed second one.
	s.Feed(42)
	v, ok := first.Get()
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestSequenceTermination(t *testing.T) {
	t.Run("Finish resolves every later pull with no value", func(t *testing.T) {
		s := async.NewSequence[int, bool]()
		s.Finish(true)
		require.True(t, s.Finished())

		for i := 0; i < 3; i++ {
			_, ok := nextValue(t, s)
			require.False(t, ok)
		}
		require.True(t, s.Return())
	})
	t.Run("Finish resolves a pending pull", func(t *testing.T) {
		s := async.NewSequence[int, bool]()

		var (
			got  async.Option[int]
			done bool
		)
		s.Next().Then(func(v async.Option[int]) {
			got = v
			done = true
		})

		s.Finish(true)
		require.True(t, done)
		_, ok := got.Get()
		require.False(t, ok)
	})
	t.Run("an error is delivered once, then end markers", func(t *testing.T) {
		reason := errors.New("stream broke")
		s := async.NewSequence[int, async.Void]()
		s.Reject(reason)
		require.True(t, s.Finished())

		require.Same(t, reason, nextError(t, s))

		_, ok := nextValue(t, s)
		require.False(t, ok)
		_, ok = nextValue(t, s)
		require.False(t, ok)
	})
	t.Run("Reject fails a pending pull", func(t *testing.T) {
		reason := errors.New("stream broke")
		s := async.NewSequence[int, async.Void]()

		var got error
		s.Next().Catch(func(err error) { got = err })

		s.Reject(reason)
		require.Same(t, reason, got)

		// Delivered through the pending pull, not stored again.
		_, ok := nextValue(t, s)
		require.False(t, ok)
	})
	t.Run("feeding after termination panics", func(t *testing.T) {
		s := async.NewSequence[int, async.Void]()
		s.Finish(async.Void{})
		require.PanicsWithValue(t, "async: Feed on a finished sequence", func() { s.Feed(1) })
	})
	t.Run("terminating twice panics", func(t *testing.T) {
		s := async.NewSequence[int, async.Void]()
		s.Finish(async.Void{})
		require.PanicsWithValue(t, "async: sequence already finished", func() { s.Finish(async.Void{}) })
		require.PanicsWithValue(t, "async: sequence already finished", func() { s.Reject(errors.New("x")) })
	})
}

func TestSequenceReturn(t *testing.T) {
	t.Run("before termination panics", func(t *testing.T) {
		s := async.NewSequence[int, bool]()
		require.Panics(t, func() { s.Return() })
	})
	t.Run("after Reject panics", func(t *testing.T) {
		s := async.NewSequence[int, bool]()
		s.Reject(errors.New("x"))
		require.Panics(t, func() { s.Return() })
	})
	t.Run("visible to a consumer resumed by Finish", func(t *testing.T) {
		var e async.Executor
		e.Autorun(e.Run)

		s := async.NewSequence[int, int]()

		var ret int
		e.Spawn(func(co *async.Coroutine) async.Result {
			var item async.Option[int]
			return co.Transition(s.Next().Await(&item).Then(async.Do(func() {
				if _, ok := item.Get(); !ok {
					ret = s.Return()
				}
			})))
		})

		s.Finish(7)
		require.Equal(t, 7, ret)
	})
}

func TestSequenceForEach(t *testing.T) {
	var e async.Executor
	e.Autorun(e.Run)

	s := async.NewSequence[int, async.Void]()
	s.Feed(1)
	s.Feed(2)

	var (
		got  []int
		done bool
	)
	e.Spawn(s.ForEach(func(v int) { got = append(got, v) }).Then(async.Do(func() { done = true })))

	require.Equal(t, []int{1, 2}, got)
	require.False(t, done)

	s.Feed(3)
	require.Equal(t, []int{1, 2, 3}, got)

	s.Finish(async.Void{})
	require.True(t, done)
}

func TestGenerate(t *testing.T) {
	t.Run("producer and consumer interleave", func(t *testing.T) {
		var e async.Executor
		e.Autorun(e.Run)

		var tick async.Signal
		s := async.Generate(&e, func(co *async.Coroutine, s *async.Sequence[int, int]) async.Result {
			n := 0
			return co.Transition(async.LoopN(3, func(co *async.Coroutine) async.Result {
				n++
				s.Feed(n)
				return co.Await(&tick).End()
			}).Then(async.Do(func() { s.Finish(n) })))
		})

		var got []int
		var done bool
		e.Spawn(s.ForEach(func(v int) { got = append(got, v) }).Then(async.Do(func() { done = true })))

		require.Equal(t, []int{1}, got)

		for i := 0; i < 3; i++ {
			e.Spawn(async.Do(tick.Notify))
		}

		require.Equal(t, []int{1, 2, 3}, got)
		require.True(t, done)
		require.Equal(t, 3, s.Return())
	})
	t.Run("a producer that ends without finishing finishes with a zero value", func(t *testing.T) {
		var e async.Executor
		e.Autorun(e.Run)

		s := async.Generate(&e, func(co *async.Coroutine, s *async.Sequence[int, int]) async.Result {
			s.Feed(1)
			return co.End()
		})

		require.True(t, s.Finished())
		require.Equal(t, 0, s.Return())

		v, ok := nextValue(t, s)
		require.True(t, ok)
		require.Equal(t, 1, v)
	})
	t.Run("a producer failure rejects the sequence", func(t *testing.T) {
		var e async.Executor
		e.Autorun(e.Run)

		reason := errors.New("producer blew up")
		s := async.Generate(&e, func(co *async.Coroutine, s *async.Sequence[int, async.Void]) async.Result {
			s.Feed(1)
			panic(reason)
		})

		v, ok := nextValue(t, s)
		require.True(t, ok)
		require.Equal(t, 1, v)

		require.ErrorIs(t, nextError(t, s), reason)

		_, ok = nextValue(t, s)
		require.False(t, ok)
	})
}
