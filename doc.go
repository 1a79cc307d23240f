// Package async provides cooperative futures and asynchronous sequences for
// a single logical thread of control.
//
// The package is built around a single-threaded [Executor] that runs
// stackless coroutines. A coroutine suspends by awaiting an [Event] and is
// resumed when that event notifies; the executor drains resumed coroutines
// in arrival order. Nothing inside the package blocks, and no state is
// shared across executors, so there is no locking around the primitives
// themselves. Only [Executor.Spawn] is safe for concurrent use; it is the
// boundary through which timers, I/O loops and other goroutines enter.
//
// [Future] is a single-assignment settlement cell: it is resolved or
// rejected exactly once, and consumed either by a suspended coroutine
// (see [Future.Await]) or by callbacks (see [Future.Then] and
// [Future.Catch]), never both. [All], [Any] and [Race] combine futures by
// completion order.
//
// [Sequence] is an ordered producer-to-consumer channel of values with an
// optional typed completion value, pulled one item at a time with
// [Sequence.Next]. Each pull is itself a [Future], so producers and
// consumers may run arbitrarily far ahead of each other, one outstanding
// pull at a time.
//
// [Async] and [Generate] bind a [Task] to a future or a sequence, so that
// an ordinary suspending task body can act as an asynchronous computation
// or a value producer. Task bodies run eagerly up to their first suspension
// point.
package async
