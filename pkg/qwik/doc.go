// Package qwik provides the resumable reactive core: signals, computed and
// derived signals, tasks, and the chore scheduler that orders the work they
// produce.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := qwik.NewSignal(0)
//	value := count.Get()  // Read (subscribes the current effect)
//	count.Set(5)          // Write (triggers dependent effects)
//
// Computed[T] is a lazily recomputed, read-only derivation:
//
//	double := qwik.NewComputed(func() int { return count.Get() * 2 })
//	value := double.Get()  // Recomputes only if a dependency changed
//
// Task is a user side effect bound to a host element. Its body receives a
// TaskCtx with Track (dependency registration) and Cleanup (teardown
// registration):
//
//	task := qwik.NewTask(container, host, 0, qwik.TaskFlagTask, func(tc *qwik.TaskCtx) error {
//	    n := tc.Track(count).(int)
//	    tc.Cleanup(func() { /* undo */ })
//	    _ = n
//	    return nil
//	})
//	task.Schedule()
//
// # Scheduling
//
// Mutating a signal does not run effects inline. Each affected effect becomes
// a chore; the Scheduler coalesces chores by (kind, target, property), orders
// them by kind precedence, and drains the queue to a fixed point on Flush.
// Visible tasks are held back until the container reports readiness.
//
// # Containers
//
// The rendering container is an external collaborator reached through the
// Container interface: it owns the scheduler, resolves host props for
// component re-renders, supplies the ambient locale, and receives every
// non-usage error through HandleError.
//
// # Concurrency
//
// Execution is cooperative and single-threaded per container. The ambient
// invocation context is per-goroutine; spawning goroutines requires explicit
// propagation via WithInvocation. A suspended task is the only source of
// interleaving: its chore is re-enqueued when the awaited channel settles.
package qwik
