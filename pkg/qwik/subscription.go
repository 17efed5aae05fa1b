package qwik

import "sync"

// PropertyKind discriminates what a subscription updates when its signal
// changes. It is an explicit three-variant tag so a node-diff subscription
// can never be confused with an empty attribute name.
type PropertyKind uint8

const (
	// PropertyComponent re-renders the whole component host.
	PropertyComponent PropertyKind = iota + 1

	// PropertyNodeDiff re-runs a node-level diff, not a component render.
	PropertyNodeDiff

	// PropertyAttribute updates a single named host attribute.
	PropertyAttribute
)

func (k PropertyKind) valid() bool {
	return k >= PropertyComponent && k <= PropertyAttribute
}

// String returns a human-readable name for the property kind.
func (k PropertyKind) String() string {
	switch k {
	case PropertyComponent:
		return "component"
	case PropertyNodeDiff:
		return "node-diff"
	case PropertyAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// EffectProperty pairs the kind tag with the attribute name for the
// attribute variant.
type EffectProperty struct {
	Kind PropertyKind
	Attr string
}

// ComponentProperty marks a whole-component re-render subscription.
func ComponentProperty() EffectProperty {
	return EffectProperty{Kind: PropertyComponent}
}

// NodeDiffProperty marks a node-level diff subscription.
func NodeDiffProperty() EffectProperty {
	return EffectProperty{Kind: PropertyNodeDiff}
}

// AttributeProperty marks a single-attribute binding subscription.
func AttributeProperty(name string) EffectProperty {
	return EffectProperty{Kind: PropertyAttribute, Attr: name}
}

// String returns the attribute name for attribute subscriptions and the kind
// name otherwise.
func (p EffectProperty) String() string {
	if p.Kind == PropertyAttribute {
		return p.Attr
	}
	return p.Kind.String()
}

// Effect is anything that must re-run when a signal it read changes: a task,
// a computed or derived signal, or a host element.
type Effect interface {
	// EffectID returns a stable unique identifier for this effect.
	EffectID() uint64
}

// EffectSubscription is one edge bundle in the reactive graph. The effect and
// every signal it read hold a reference to the same record, so teardown from
// either side can prune the other in one pass.
type EffectSubscription struct {
	// Effect is the dependent side of the edge.
	Effect Effect

	// Property says what to update on the effect's host when a dependency
	// changes. Ignored for task and derivation effects.
	Property EffectProperty

	// signals are the dependency side: every cell this subscription is
	// currently attached to, in attach order.
	signals   []*signalBase
	signalsMu sync.Mutex
}

// NewHostSubscription builds the subscription a renderer installs before
// walking a host's bindings. Signals read under it (via WithInvocation)
// attach themselves to the record. A zero or unknown property tag panics
// with ErrInvalidProperty: such a subscription could never be dispatched.
func NewHostSubscription(host Host, prop EffectProperty) *EffectSubscription {
	if !prop.Kind.valid() {
		panic(ErrInvalidProperty)
	}
	return &EffectSubscription{Effect: host, Property: prop}
}

func newSubscription(e Effect, prop EffectProperty) *EffectSubscription {
	return &EffectSubscription{Effect: e, Property: prop}
}

// addSignal records a dependency cell on the subscription's own side.
func (s *EffectSubscription) addSignal(base *signalBase) {
	s.signalsMu.Lock()
	defer s.signalsMu.Unlock()
	for _, b := range s.signals {
		if b == base {
			return
		}
	}
	s.signals = append(s.signals, base)
}

// detach removes this subscription from every signal holding it and clears
// the dependency list. The record can be reused afterwards; the next tracked
// read repopulates both sides.
func (s *EffectSubscription) detach() {
	s.signalsMu.Lock()
	signals := s.signals
	s.signals = nil
	s.signalsMu.Unlock()

	// Reverse order: removal splices the signal's list in place.
	for i := len(signals) - 1; i >= 0; i-- {
		signals[i].removeSub(s)
	}
}

// signalBase provides type-erased subscriber management and container
// binding. It is embedded in Signal[T], Computed[T], and Derived[T].
type signalBase struct {
	id uint64

	// container is bound on first tracked read and never changes after.
	container Container

	// subs are the subscriptions attached to this cell, in insertion order.
	subs []*EffectSubscription

	mu sync.Mutex
}

// addSub attaches a subscription, at most once per (effect, property).
// Reports whether the subscription was newly added.
func (b *signalBase) addSub(sub *EffectSubscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	eid := sub.Effect.EffectID()
	for _, existing := range b.subs {
		if existing == sub {
			return false
		}
		if existing.Effect.EffectID() == eid && existing.Property == sub.Property {
			return false
		}
	}
	b.subs = append(b.subs, sub)
	return true
}

// removeSub detaches a subscription from this cell only.
func (b *signalBase) removeSub(sub *EffectSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.subs {
		if existing == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// snapshotSubs copies the subscription list so dispatch can run without the
// lock and survive concurrent removal.
func (b *signalBase) snapshotSubs() []*EffectSubscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return nil
	}
	subs := make([]*EffectSubscription, len(b.subs))
	copy(subs, b.subs)
	return subs
}

func (b *signalBase) hasSubs() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) > 0
}

// bindContainer assigns the owning container on first contact. A cell bound
// to one container must never be used under another.
func (b *signalBase) bindContainer(c Container) {
	if c == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.container == nil {
		b.container = c
		return
	}
	if b.container != c {
		panic(ErrCrossContainer)
	}
}

func (b *signalBase) boundContainer() Container {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.container
}

// trackRead registers the current subscriber as dependent on this cell and
// this cell as a dependency of the subscriber. Outside any invocation, or
// with no active subscriber, it is a plain read.
func (b *signalBase) trackRead() {
	inv := currentInvocation()
	if inv == nil {
		return
	}
	b.bindContainer(inv.Container)
	sub := inv.Subscriber
	if sub == nil {
		return
	}
	if b.addSub(sub) {
		sub.addSignal(b)
	}
}

// AnySignal is the type-erased view of a signal cell: plain, computed, or
// derived. The renderer uses it to read chore payloads without knowing the
// value type.
type AnySignal interface {
	// SignalID returns the cell's unique identifier.
	SignalID() uint64

	// UntrackedAny returns the current value without touching the graph.
	UntrackedAny() any

	// trackedAny reads the value while registering the current subscriber.
	trackedAny() any

	// setAny writes a type-erased value, or rejects the write.
	setAny(v any) error

	// ref exposes the embedded base for graph bookkeeping.
	ref() *signalBase
}

// SetAny writes v into a type-erased cell. Plain signals accept any value
// assignable to their element type; computed and derived cells reject the
// write with ErrReadOnly. Deserialization uses this to restore cell values
// without knowing their static types.
func SetAny(target AnySignal, v any) error {
	return target.setAny(v)
}

// IsSignal reports whether v is a signal cell of any flavor.
func IsSignal(v any) bool {
	_, ok := v.(AnySignal)
	return ok
}

// derivationEffect is the dependent face of computed and derived signals:
// a dependency change invalidates them and may propagate further.
type derivationEffect interface {
	Effect
	AnySignal

	// onDependencyChange marks the cell invalid and returns the
	// subscriptions to propagate to. A nil slice means the change was
	// absorbed: nothing depends on the cell yet, or the recomputed value
	// did not differ.
	onDependencyChange() []*EffectSubscription

	// detachDependencies prunes the cell's own compute subscription from
	// every signal it read.
	detachDependencies()
}

// triggerEffects dispatches every subscription of a changed cell, in the
// order the subscriptions were recorded. Global re-ordering and coalescing
// happen in the scheduler, not here.
func triggerEffects(c Container, origin AnySignal, subs []*EffectSubscription) {
	if queueInBatch(c, origin, subs) {
		return
	}
	for _, sub := range subs {
		dispatchEffect(c, origin, sub)
	}
}

// dispatchEffect routes one subscription by effect variant. origin is the
// signal whose change is being reported; it is threaded explicitly so that
// nested derivations report themselves, not the root cell, to node-diff
// chores.
func dispatchEffect(c Container, origin AnySignal, sub *EffectSubscription) {
	switch e := sub.Effect.(type) {
	case *Task:
		e.setDirty()
		sched := schedulerOf(c)
		if sched == nil {
			sched = schedulerOf(e.container)
		}
		if sched != nil {
			sched.Schedule(&Chore{
				Kind:         e.choreKind(),
				Host:         e.host,
				Task:         e,
				Subscription: sub,
			})
		}

	case derivationEffect:
		downstream := e.onDependencyChange()
		if len(downstream) == 0 {
			return
		}
		// The nested cell may be bound while the root is not; its own
		// container wins for the recursive walk, and it becomes the
		// origin reported to node-diff chores.
		nc := e.ref().boundContainer()
		if nc == nil {
			nc = c
		}
		for _, nested := range downstream {
			dispatchEffect(nc, e, nested)
		}

	default:
		host, ok := sub.Effect.(Host)
		if !ok {
			return
		}
		sched := schedulerOf(c)
		if sched == nil {
			return
		}
		switch sub.Property.Kind {
		case PropertyComponent:
			sched.Schedule(&Chore{
				Kind:     ChoreComponent,
				Host:     host,
				RenderFn: c.GetHostProp(host, HostPropRenderFn),
				Props:    c.GetHostProp(host, HostPropProps),
			})
		case PropertyNodeDiff:
			sched.Schedule(&Chore{
				Kind:   ChoreNodeDiff,
				Host:   host,
				Target: host,
				Signal: origin,
			})
		case PropertyAttribute:
			sched.Schedule(&Chore{
				Kind:     ChoreNodeProp,
				Host:     host,
				Property: sub.Property.Attr,
				Signal:   origin,
			})
		}
	}
}

func schedulerOf(c Container) *Scheduler {
	if c == nil {
		return nil
	}
	return c.Scheduler()
}

// ClearSubscriberEffectDependencies walks an effect's own dependency list and
// prunes every edge from both sides. Called when the effect is torn down or
// about to re-collect its dependencies.
func ClearSubscriberEffectDependencies(e Effect) {
	switch v := e.(type) {
	case *Task:
		if v.trackSub != nil {
			v.trackSub.detach()
		}
	case derivationEffect:
		v.detachDependencies()
	}
}

// ClearHostEffectDependencies walks a removed host's subscriptions and prunes
// every edge touching it, in both directions. The renderer passes the
// subscriptions it installed for the node.
func ClearHostEffectDependencies(host Host, subs []*EffectSubscription) {
	for _, sub := range subs {
		if sub == nil || sub.Effect == nil {
			continue
		}
		if h, ok := sub.Effect.(Host); ok && h.HostID() == host.HostID() {
			sub.detach()
		}
	}
}
