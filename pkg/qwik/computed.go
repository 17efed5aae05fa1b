package qwik

import "sync"

// Computed is a read-only signal whose value is produced by re-running a
// pure function when a dependency changes. Recomputation is lazy: marking
// the cell invalid costs nothing until someone reads it or depends on it.
//
// While the function runs, signals it reads subscribe back to the computed
// cell itself, so invalidation propagates through chains of derivations.
//
// The compute function must produce its result synchronously; there is no
// Set, the read-only contract is structural.
type Computed[T any] struct {
	base signalBase

	// compute produces the value. Must be resolved ahead of use.
	compute func() T

	// value is the cached result of the last computation.
	value T

	// invalid marks the cached value stale. Initially true.
	invalid bool

	// computing guards against recursive recomputation through cycles.
	computing bool

	// computeSub is the cell's own dependency subscription, shared with
	// every signal the compute function reads.
	computeSub *EffectSubscription

	// equal overrides the change check. If nil, identity equality is used.
	equal func(T, T) bool

	mu sync.Mutex
}

// NewComputed creates a computed signal over the given function. The first
// computation runs on first read.
func NewComputed[T any](compute func() T) *Computed[T] {
	return &Computed[T]{
		base:    signalBase{id: nextID()},
		compute: compute,
		invalid: true,
	}
}

// Get ensures the value is fresh, subscribes the current effect exactly like
// a plain signal read, and returns the value.
func (c *Computed[T]) Get() T {
	c.ensureFresh()
	c.base.trackRead()
	return c.peek()
}

// Peek recomputes if invalid and returns the value without subscribing the
// caller.
func (c *Computed[T]) Peek() T {
	c.ensureFresh()
	return c.peek()
}

// Invalidate marks the cached value stale. With no dependents the
// computation is deferred until the next read; otherwise the cell recomputes
// now and propagates only if the new value actually differs.
func (c *Computed[T]) Invalidate() {
	c.mu.Lock()
	c.invalid = true
	c.mu.Unlock()

	if !c.base.hasSubs() {
		return
	}
	if c.ensureFresh() {
		c.trigger()
	}
}

// Force marks the value stale and propagates to dependents regardless of
// whether the recomputed value differs. Use after mutating the held value in
// place.
func (c *Computed[T]) Force() {
	c.mu.Lock()
	c.invalid = true
	c.mu.Unlock()

	c.trigger()
}

// WithEquals configures a custom change predicate.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.equal = fn
	return c
}

// EffectID implements Effect.
func (c *Computed[T]) EffectID() uint64 {
	return c.base.id
}

// SignalID implements AnySignal.
func (c *Computed[T]) SignalID() uint64 {
	return c.base.id
}

// UntrackedAny implements AnySignal; like Peek it recomputes when invalid.
func (c *Computed[T]) UntrackedAny() any {
	return c.Peek()
}

func (c *Computed[T]) trackedAny() any {
	return c.Get()
}

func (c *Computed[T]) setAny(any) error {
	return ErrReadOnly
}

func (c *Computed[T]) ref() *signalBase {
	return &c.base
}

// onDependencyChange implements derivationEffect. Reports the subscriptions
// to propagate to, or nil when the change is absorbed: the cell is lazy with
// no dependents, or the recomputed value is identical.
func (c *Computed[T]) onDependencyChange() []*EffectSubscription {
	c.mu.Lock()
	if c.computing {
		c.mu.Unlock()
		return nil
	}
	c.invalid = true
	c.mu.Unlock()

	if !c.base.hasSubs() {
		return nil
	}
	if !c.ensureFresh() {
		return nil
	}
	return c.base.snapshotSubs()
}

// detachDependencies implements derivationEffect.
func (c *Computed[T]) detachDependencies() {
	c.mu.Lock()
	sub := c.computeSub
	c.mu.Unlock()
	if sub != nil {
		sub.detach()
	}
}

// ensureFresh recomputes when invalid and reports whether the value changed.
func (c *Computed[T]) ensureFresh() bool {
	c.mu.Lock()
	if !c.invalid || c.computing {
		c.mu.Unlock()
		return false
	}
	c.computing = true
	if c.computeSub == nil {
		c.computeSub = newSubscription(c, NodeDiffProperty())
	}
	sub := c.computeSub
	c.mu.Unlock()

	// Drop stale edges; the run below re-collects live ones.
	sub.detach()

	container := c.base.boundContainer()
	if container == nil {
		// First computation can precede the first tracked read; bind to
		// the reader's container now so the cells read below bind too.
		if reader := currentInvocation(); reader != nil {
			container = reader.Container
			c.base.bindContainer(container)
		}
	}

	inv := &Invocation{
		Subscriber: sub,
		Container:  container,
		Event:      EventComputed,
	}
	if inv.Container != nil {
		inv.Locale = inv.Container.Locale()
	}

	var next T
	invoke(inv, func() {
		next = c.compute()
	})

	c.mu.Lock()
	changed := !c.equals(c.value, next)
	c.value = next
	c.invalid = false
	c.computing = false
	c.mu.Unlock()

	return changed
}

func (c *Computed[T]) peek() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *Computed[T]) trigger() {
	triggerEffects(c.base.boundContainer(), c, c.base.snapshotSubs())
}

func (c *Computed[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return identityEqual(a, b)
}

var (
	_ AnySignal        = (*Computed[int])(nil)
	_ derivationEffect = (*Computed[int])(nil)
)
