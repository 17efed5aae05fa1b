package qwik

import "sync"

// Derived is the computed shape for expressions embedded directly in
// bindings: the function is paired with a captured argument list instead of
// a user-declared zero-argument handle.
//
// Unlike Computed, a Derived may be evaluated before any container is bound,
// purely for structural validity. That path computes directly and must not
// attempt to subscribe.
type Derived[T any] struct {
	base signalBase

	// fn produces the value from the captured arguments.
	fn func(args ...any) T

	// args is the captured argument list.
	args []any

	value      T
	invalid    bool
	computing  bool
	computeSub *EffectSubscription

	equal func(T, T) bool

	mu sync.Mutex
}

// NewDerived creates a derived signal over fn and its captured arguments.
func NewDerived[T any](fn func(args ...any) T, args ...any) *Derived[T] {
	return &Derived[T]{
		base:    signalBase{id: nextID()},
		fn:      fn,
		args:    args,
		invalid: true,
	}
}

// Get ensures the value is fresh, subscribes the current effect, and returns
// the value.
func (d *Derived[T]) Get() T {
	d.ensureFresh()
	d.base.trackRead()
	return d.peek()
}

// Peek recomputes if invalid and returns the value without subscribing the
// caller.
func (d *Derived[T]) Peek() T {
	d.ensureFresh()
	return d.peek()
}

// Args returns the captured argument list.
func (d *Derived[T]) Args() []any {
	return d.args
}

// Invalidate marks the value stale; recomputes eagerly and propagates on
// change only when something depends on the cell.
func (d *Derived[T]) Invalidate() {
	d.mu.Lock()
	d.invalid = true
	d.mu.Unlock()

	if !d.base.hasSubs() {
		return
	}
	if d.ensureFresh() {
		d.trigger()
	}
}

// Force marks the value stale and propagates unconditionally.
func (d *Derived[T]) Force() {
	d.mu.Lock()
	d.invalid = true
	d.mu.Unlock()

	d.trigger()
}

// WithEquals configures a custom change predicate.
func (d *Derived[T]) WithEquals(fn func(T, T) bool) *Derived[T] {
	d.equal = fn
	return d
}

// EffectID implements Effect.
func (d *Derived[T]) EffectID() uint64 {
	return d.base.id
}

// SignalID implements AnySignal.
func (d *Derived[T]) SignalID() uint64 {
	return d.base.id
}

// UntrackedAny implements AnySignal.
func (d *Derived[T]) UntrackedAny() any {
	return d.Peek()
}

func (d *Derived[T]) trackedAny() any {
	return d.Get()
}

func (d *Derived[T]) setAny(any) error {
	return ErrReadOnly
}

func (d *Derived[T]) ref() *signalBase {
	return &d.base
}

// onDependencyChange implements derivationEffect.
func (d *Derived[T]) onDependencyChange() []*EffectSubscription {
	d.mu.Lock()
	if d.computing {
		d.mu.Unlock()
		return nil
	}
	d.invalid = true
	d.mu.Unlock()

	if !d.base.hasSubs() {
		return nil
	}
	if !d.ensureFresh() {
		return nil
	}
	return d.base.snapshotSubs()
}

// detachDependencies implements derivationEffect.
func (d *Derived[T]) detachDependencies() {
	d.mu.Lock()
	sub := d.computeSub
	d.mu.Unlock()
	if sub != nil {
		sub.detach()
	}
}

func (d *Derived[T]) ensureFresh() bool {
	d.mu.Lock()
	if !d.invalid || d.computing {
		d.mu.Unlock()
		return false
	}
	d.computing = true
	container := d.base.boundContainer()
	if container == nil {
		if reader := currentInvocation(); reader != nil && reader.Container != nil {
			container = reader.Container
			d.base.bindContainer(container)
		}
	}

	if container == nil {
		// Structural evaluation before mounting: compute directly, no
		// subscriptions.
		d.mu.Unlock()
		next := d.fn(d.args...)
		d.mu.Lock()
		changed := !d.equals(d.value, next)
		d.value = next
		d.invalid = false
		d.computing = false
		d.mu.Unlock()
		return changed
	}

	if d.computeSub == nil {
		d.computeSub = newSubscription(d, NodeDiffProperty())
	}
	sub := d.computeSub
	d.mu.Unlock()

	sub.detach()

	inv := &Invocation{
		Subscriber: sub,
		Container:  container,
		Locale:     container.Locale(),
		Event:      EventComputed,
	}

	var next T
	invoke(inv, func() {
		next = d.fn(d.args...)
	})

	d.mu.Lock()
	changed := !d.equals(d.value, next)
	d.value = next
	d.invalid = false
	d.computing = false
	d.mu.Unlock()

	return changed
}

func (d *Derived[T]) peek() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

func (d *Derived[T]) trigger() {
	triggerEffects(d.base.boundContainer(), d, d.base.snapshotSubs())
}

func (d *Derived[T]) equals(a, b T) bool {
	if d.equal != nil {
		return d.equal(a, b)
	}
	return identityEqual(a, b)
}

var (
	_ AnySignal        = (*Derived[int])(nil)
	_ derivationEffect = (*Derived[int])(nil)
)
