package qwik

// ChoreKind identifies one scheduled unit of work. The numeric order is the
// execution precedence: lower kinds always flush before higher ones, so the
// constants build an explicit total order, not insertion order.
type ChoreKind uint8

const (
	// ChoreResource runs a resource fetch task.
	ChoreResource ChoreKind = iota

	// ChoreTask runs a plain task.
	ChoreTask

	// ChoreNodeDiff re-runs a node-level diff.
	ChoreNodeDiff

	// ChoreNodeProp updates a single host attribute.
	ChoreNodeProp

	// ChoreComponent re-renders a component host.
	ChoreComponent

	// ChoreVisible runs a visible task; held until the readiness trigger.
	ChoreVisible

	choreKindCount
)

// String returns a human-readable name for the chore kind.
func (k ChoreKind) String() string {
	switch k {
	case ChoreResource:
		return "resource"
	case ChoreTask:
		return "task"
	case ChoreNodeDiff:
		return "node-diff"
	case ChoreNodeProp:
		return "node-prop"
	case ChoreComponent:
		return "component"
	case ChoreVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// Chore is one scheduler work item. Which payload fields are set depends on
// the kind: task kinds carry Task and the triggering Subscription, component
// chores carry the render function and props, node chores carry the host,
// target, and originating signal.
type Chore struct {
	Kind ChoreKind

	// Host is the target element. For task kinds it is the task's host.
	Host Host

	// Property is the attribute name for ChoreNodeProp, empty otherwise.
	Property string

	// Task is the task to run, for task-flavored kinds.
	Task *Task

	// Subscription is the edge whose signal change produced this chore,
	// so the executor can re-derive which signal triggered the task.
	Subscription *EffectSubscription

	// Signal is the originating cell for node chores.
	Signal AnySignal

	// Target is the node to diff for ChoreNodeDiff.
	Target Host

	// RenderFn and Props are the component chore payload.
	RenderFn any
	Props    any

	// seq preserves enqueue order within a kind.
	seq uint64
}

// choreKey identifies the coalescing slot: at most one pending chore per
// (kind, target, property).
type choreKey struct {
	kind ChoreKind
	id   uint64
	prop string
}

func (ch *Chore) key() choreKey {
	switch ch.Kind {
	case ChoreResource, ChoreTask, ChoreVisible:
		return choreKey{kind: ch.Kind, id: ch.Task.EffectID()}
	default:
		return choreKey{kind: ch.Kind, id: ch.Host.HostID(), prop: ch.Property}
	}
}
