package qwik

// ResourceState tracks a resource fetch through its lifecycle.
type ResourceState int

const (
	// ResourcePending is the state before the first fetch runs.
	ResourcePending ResourceState = iota

	// ResourceLoading marks a fetch in progress.
	ResourceLoading

	// ResourceReady marks a successfully loaded value.
	ResourceReady

	// ResourceRejected marks a failed fetch.
	ResourceRejected
)

// String returns a human-readable name for the state.
func (s ResourceState) String() string {
	switch s {
	case ResourcePending:
		return "pending"
	case ResourceLoading:
		return "loading"
	case ResourceReady:
		return "ready"
	case ResourceRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Resource is the task flavor that fetches an asynchronous value. The fetch
// runs under the resource chore kind, which flushes ahead of every other
// kind; its state, value, and error are plain signals, so consumers track
// them like any other cell.
type Resource[T any] struct {
	task  *Task
	state *Signal[ResourceState]
	value *Signal[T]
	err   *Signal[error]
}

// NewResource registers a resource on the host's task slot at index and
// schedules the first fetch. The fetch body follows the task contract: it
// may Track dependencies, register Cleanup, and return a Suspended retry
// signal; rejection is recorded on the resource, not routed to the container
// handler.
func NewResource[T any](c Container, host Host, index int, fetch func(tc *TaskCtx) (T, error)) *Resource[T] {
	r := &Resource[T]{
		state: NewSignal(ResourcePending),
		value: NewSignal(*new(T)),
		err:   NewSignal[error](nil),
	}

	r.task = NewTask(c, host, index, TaskFlagResource, func(tc *TaskCtx) error {
		r.state.Set(ResourceLoading)

		v, err := fetch(tc)
		if err != nil {
			if _, suspended := AsSuspended(err); suspended {
				return err
			}
			r.err.Set(err)
			r.state.Set(ResourceRejected)
			return nil
		}

		r.value.Set(v)
		r.err.Set(nil)
		r.state.Set(ResourceReady)
		return nil
	})
	r.task.SetState(r)
	r.task.Schedule()

	return r
}

// State returns the current lifecycle state, tracked.
func (r *Resource[T]) State() ResourceState {
	return r.state.Get()
}

// Loading reports whether a fetch is pending or in progress, tracked.
func (r *Resource[T]) Loading() bool {
	s := r.state.Get()
	return s == ResourcePending || s == ResourceLoading
}

// Value returns the last loaded value, tracked.
func (r *Resource[T]) Value() T {
	return r.value.Get()
}

// Err returns the rejection error, tracked. nil unless the state is
// rejected.
func (r *Resource[T]) Err() error {
	return r.err.Get()
}

// Task returns the underlying fetch task.
func (r *Resource[T]) Task() *Task {
	return r.task
}

// Refetch marks the fetch dirty and re-enqueues it.
func (r *Resource[T]) Refetch() {
	r.task.Schedule()
}
