package qwik

import (
	"fmt"
	"log"
	"sync"
)

// TaskFlags is the task lifecycle bitfield.
type TaskFlags uint16

const (
	// TaskFlagTask marks a plain task: re-runs whenever a tracked
	// dependency changes.
	TaskFlagTask TaskFlags = 1 << iota

	// TaskFlagVisible defers execution until the container's readiness
	// trigger fires.
	TaskFlagVisible

	// TaskFlagResource marks a resource fetch task.
	TaskFlagResource

	// TaskFlagDirty marks the task as needing a run.
	TaskFlagDirty
)

// TaskFn is a task body. It receives the Track/Cleanup contract and returns
// nil, a failure routed to the container's error handler, or a Suspended
// retry signal.
type TaskFn func(tc *TaskCtx) error

// Task is a unit of user-supplied reactive logic bound to a host element.
// It is created on the first execution of its registering hook, re-scheduled
// whenever a tracked dependency changes, and destroyed when its host is
// removed or just before it re-runs.
type Task struct {
	id        uint64
	flags     TaskFlags
	index     int
	host      Host
	container Container

	// loader resolves the task body lazily; fn caches the resolution.
	loader func() (TaskFn, error)
	fn     TaskFn

	// state optionally holds a signal or resource owned by the task.
	state any

	// cleanups aggregates registered teardown closures; destroy is the
	// single thunk that drains them.
	cleanups []func()
	destroy  func()

	// trackSub is the shared subscription for every dependency the body
	// tracks.
	trackSub *EffectSubscription

	mu sync.Mutex
}

// NewTask creates a task over an already-resolved body. index is the task's
// position among the host's sequential task slots.
func NewTask(c Container, host Host, index int, flags TaskFlags, fn TaskFn) *Task {
	return &Task{
		id:        nextID(),
		flags:     flags | TaskFlagDirty,
		index:     index,
		host:      host,
		container: c,
		fn:        fn,
	}
}

// NewLazyTask creates a task whose body is resolved on first run, the shape
// produced by closure extraction: the chunk holding the body may not be
// loaded yet when the task is registered.
func NewLazyTask(c Container, host Host, index int, flags TaskFlags, loader func() (TaskFn, error)) *Task {
	return &Task{
		id:        nextID(),
		flags:     flags | TaskFlagDirty,
		index:     index,
		host:      host,
		container: c,
		loader:    loader,
	}
}

// EffectID implements Effect.
func (t *Task) EffectID() uint64 {
	return t.id
}

// Host returns the owning host element.
func (t *Task) Host() Host {
	return t.host
}

// Index returns the task's slot position on its host.
func (t *Task) Index() int {
	return t.index
}

// Flags returns the current lifecycle flags.
func (t *Task) Flags() TaskFlags {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flags
}

// State returns the signal or resource held by the task, if any.
func (t *Task) State() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetState attaches held state (a signal or resource) to the task.
func (t *Task) SetState(state any) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

// Schedule enqueues the task's chore with its container's scheduler.
// Called once at registration; afterwards dependency changes re-enqueue it.
func (t *Task) Schedule() {
	if sched := schedulerOf(t.container); sched != nil {
		t.setDirty()
		sched.Schedule(&Chore{Kind: t.choreKind(), Host: t.host, Task: t})
	}
}

// Run executes the task body: previous cleanup first, then the body under a
// fresh invocation context. The previous run's dependency edges are dropped
// before the body starts; its Track calls re-collect the live ones, so a
// branch no longer read cannot re-trigger the task. Body failures are routed
// to the container's error handler before returning; a Suspended return is
// left to the caller to retry.
func (t *Task) Run() error {
	t.clearDirty()
	t.runDestroy()
	ClearSubscriberEffectDependencies(t)

	fn, err := t.resolve()
	if err != nil {
		t.container.HandleError(err, t.host)
		return err
	}

	event := EventTask
	if t.Flags()&TaskFlagResource != 0 {
		event = EventResource
	}
	inv := &Invocation{
		Host:      t.host,
		Container: t.container,
		Locale:    t.container.Locale(),
		Event:     event,
	}

	tc := &TaskCtx{task: t}
	var runErr error
	invoke(inv, func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = recoveredError(r)
			}
		}()
		runErr = fn(tc)
	})

	if runErr != nil {
		if _, suspended := AsSuspended(runErr); suspended {
			return runErr
		}
		t.container.HandleError(runErr, t.host)
		return runErr
	}
	return nil
}

// Destroy runs the aggregated cleanup and prunes every subscription the task
// holds, in both directions. Called by the renderer when the host is removed.
func (t *Task) Destroy() {
	t.runDestroy()
	ClearSubscriberEffectDependencies(t)
}

// IsTask reports whether v is a task. The renderer uses it to classify
// effects while walking the graph during unmount.
func IsTask(v any) bool {
	_, ok := v.(*Task)
	return ok
}

func (t *Task) choreKind() ChoreKind {
	flags := t.Flags()
	switch {
	case flags&TaskFlagResource != 0:
		return ChoreResource
	case flags&TaskFlagVisible != 0:
		return ChoreVisible
	default:
		return ChoreTask
	}
}

func (t *Task) setDirty() {
	t.mu.Lock()
	t.flags |= TaskFlagDirty
	t.mu.Unlock()
}

func (t *Task) clearDirty() {
	t.mu.Lock()
	t.flags &^= TaskFlagDirty
	t.mu.Unlock()
}

// resolve loads the task body once and caches it.
func (t *Task) resolve() (TaskFn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fn != nil {
		return t.fn, nil
	}
	if t.loader == nil {
		return nil, fmt.Errorf("qwik: task %d has no body", t.id)
	}
	fn, err := t.loader()
	if err != nil {
		return nil, err
	}
	t.fn = fn
	t.loader = nil
	return fn, nil
}

// runDestroy runs and discards the previous cleanup. A failing cleanup is
// logged, never propagated: it must not block the next run.
func (t *Task) runDestroy() {
	t.mu.Lock()
	destroy := t.destroy
	t.destroy = nil
	t.mu.Unlock()

	if destroy == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("qwik: task %d cleanup failed: %v", t.id, r)
		}
	}()
	destroy()
}

// ensureTrackSub returns the task's shared dependency subscription,
// creating it on first use. The component-flavored property mirrors how the
// task's host would re-render.
func (t *Task) ensureTrackSub() *EffectSubscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.trackSub == nil {
		t.trackSub = newSubscription(t, ComponentProperty())
	}
	return t.trackSub
}

// TaskCtx is the contract handed to a task body.
type TaskCtx struct {
	task *Task
}

// Host returns the element the task runs on behalf of.
func (tc *TaskCtx) Host() Host {
	return tc.task.host
}

// Locale returns the container locale for this run.
func (tc *TaskCtx) Locale() string {
	return Locale("")
}

// Track performs a scoped read that registers the task as a subscriber of
// whatever target resolves to, and returns the read value. target may be:
//
//   - a zero-argument reader func() any, run with tracking active
//   - any signal cell (plain, computed, derived)
//   - a *Store together with a property name
//
// Anything else panics with ErrTrackWithoutProp: there is nothing to
// subscribe to on an arbitrary value.
func (tc *TaskCtx) Track(target any, prop ...string) any {
	sub := tc.task.ensureTrackSub()

	var out any
	read := func() {
		switch v := target.(type) {
		case func() any:
			out = v()
		case AnySignal:
			out = v.trackedAny()
		case *Store:
			if len(prop) == 0 {
				panic(ErrTrackWithoutProp)
			}
			out = v.Get(prop[0])
		default:
			panic(ErrTrackWithoutProp)
		}
	}

	inv := &Invocation{
		Subscriber: sub,
		Host:       tc.task.host,
		Container:  tc.task.container,
		Locale:     tc.task.container.Locale(),
		Event:      EventTask,
	}
	invoke(inv, read)
	return out
}

// Cleanup registers a teardown closure. The first registration lazily
// allocates the list and installs the task's single destroy thunk; each
// entry runs wrapped, so one failure is routed to the container's error
// handler instead of escaping the iteration.
func (tc *TaskCtx) Cleanup(fn func()) {
	t := tc.task
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanups = append(t.cleanups, fn)
	if t.destroy == nil {
		t.destroy = func() {
			t.mu.Lock()
			cleanups := t.cleanups
			t.cleanups = nil
			t.mu.Unlock()
			for _, cleanup := range cleanups {
				runCleanup(t, cleanup)
			}
		}
	}
}

func runCleanup(t *Task, cleanup func()) {
	defer func() {
		if r := recover(); r != nil {
			t.container.HandleError(recoveredError(r), t.host)
		}
	}()
	cleanup()
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("qwik: %v", r)
}
