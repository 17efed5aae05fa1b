package qwik

// Host identifies an element owned by the rendering container. Hosts are
// opaque to the core: it only needs a stable identity for chore coalescing
// and for routing errors to the right subtree. A host is itself an effect:
// component re-renders and node diffs subscribe to signals on its behalf.
type Host interface {
	Effect

	// HostID returns a stable unique identifier for this element.
	HostID() uint64
}

// Host prop names resolved through Container.GetHostProp when a component
// re-render is scheduled.
const (
	// HostPropRenderFn stores the host's render function.
	HostPropRenderFn = "q:renderFn"

	// HostPropProps stores the host's current props.
	HostPropProps = "q:props"
)

// Container is the seam to the rendering container that owns a reactive
// graph. The container is an external collaborator: the core schedules work
// through it, reads host-stored props from it, and routes every non-usage
// error to it.
type Container interface {
	// Scheduler returns the chore scheduler for this container.
	Scheduler() *Scheduler

	// GetHostProp reads a property stored on a host element, such as its
	// render function or current props.
	GetHostProp(host Host, name string) any

	// HandleError reports an unrecoverable error scoped to a host subtree.
	// The container decides presentation: log, error boundary, or rethrow.
	HandleError(err error, host Host)

	// Locale returns the ambient locale for invocation contexts.
	Locale() string
}

// Renderer executes the render-flavored chores the scheduler dequeues.
// It is supplied by the diffing renderer, which is outside this module;
// a scheduler without a renderer drops render chores.
type Renderer interface {
	// RenderComponent re-renders a component host with its render function
	// and current props.
	RenderComponent(host Host, renderFn any, props any) error

	// DiffNode re-runs a node-level diff for target under host. origin is
	// the signal whose change produced the chore.
	DiffNode(host, target Host, origin AnySignal) error

	// UpdateNodeProp writes a single host attribute from origin's value.
	UpdateNodeProp(host Host, prop string, origin AnySignal) error
}
