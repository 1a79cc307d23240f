package async_test

import (
	"fmt"
	"sync"
	"time"

	async "github.com/chemwolf6922/js-style-co-routine"
)

func Example() {
	var e async.Executor
	e.Autorun(e.Run)

	letters := async.Generate(&e, func(co *async.Coroutine, s *async.Sequence[string, async.Void]) async.Result {
		return co.Transition(async.Do(func() {
			s.Feed("a")
			s.Feed("b")
			s.Feed("c")
		}))
	})

	e.Spawn(
		letters.ForEach(func(v string) { fmt.Println(v) }).
			Then(async.Do(func() { fmt.Println("done") })),
	)

	// Output:
	// a
	// b
	// c
	// done
}

func ExampleFuture() {
	var e async.Executor
	e.Autorun(e.Run)

	f := async.NewFuture[int]()
	f.Then(func(v int) { fmt.Println("resolved:", v) })

	e.Spawn(async.Do(func() { f.Resolve(42) }))

	// Output:
	// resolved: 42
}

func ExampleAsync() {
	var e async.Executor
	e.Autorun(e.Run)

	quota := async.NewFuture[int]()

	doubled := async.Async(&e, func(co *async.Coroutine, f *async.Future[int]) async.Result {
		var v int
		return co.Transition(quota.Await(&v).Then(func(co *async.Coroutine) async.Result {
			f.Resolve(v * 2)
			return co.End()
		}))
	})
	doubled.Then(func(v int) { fmt.Println(v) })

	e.Spawn(async.Do(func() { quota.Resolve(21) }))

	// Output:
	// 42
}

func ExampleAll() {
	var e async.Executor
	e.Autorun(e.Run)

	a := async.NewFuture[int]()
	b := async.NewFuture[int]()
	async.All(a, b).Then(func(vs []int) { fmt.Println(vs) })

	e.Spawn(async.Do(func() { b.Resolve(2) }))
	e.Spawn(async.Do(func() { a.Resolve(1) }))

	// Output:
	// [1 2]
}

func ExampleRace() {
	var wg sync.WaitGroup
	var e async.Executor
	e.Autorun(e.Run)

	a := async.NewFuture[string]()
	b := async.NewFuture[string]()
	e.Spawn(async.Do(func() {
		async.Race(a, b).Then(func(v string) { fmt.Println("winner:", v) })
	}))

	settle := func(f *async.Future[string], v string, d time.Duration) {
		wg.Add(1)
		time.AfterFunc(d, func() {
			defer wg.Done()
			e.Spawn(async.Do(func() {
				if !f.Done() {
					f.Resolve(v)
				}
			}))
		})
	}
	settle(a, "tortoise", 90*time.Millisecond)
	settle(b, "hare", 30*time.Millisecond)

	wg.Wait()

	// Output:
	// winner: hare
}
