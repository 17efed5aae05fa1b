package qwik

import (
	"sync"

	"github.com/petermattis/goid"
)

// InvokeEvent identifies the kind of synchronous boundary an invocation
// context wraps.
type InvokeEvent string

const (
	// EventTask wraps a task body run.
	EventTask InvokeEvent = "task"

	// EventResource wraps a resource fetch run.
	EventResource InvokeEvent = "resource"

	// EventComputed wraps a computed or derived recomputation.
	EventComputed InvokeEvent = "computed"

	// EventRender wraps a component render call.
	EventRender InvokeEvent = "render"
)

// Invocation is the ambient record for one synchronous call chain: the
// effect subscription currently collecting dependencies, the host element
// being processed, the owning container, the locale, and the event kind.
//
// An Invocation never outlives the call it wraps. Nested invocations
// save and restore the previous record.
type Invocation struct {
	// Subscriber collects the signals read during this invocation.
	// nil means reads are plain reads and do not touch the graph.
	Subscriber *EffectSubscription

	// Host is the element this invocation executes on behalf of.
	Host Host

	// Container owns the graph this invocation runs in.
	Container Container

	// Locale is the ambient locale, usually taken from the container.
	Locale string

	// Event is the boundary kind.
	Event InvokeEvent
}

// invocations stores the active invocation per goroutine.
// Using sync.Map for concurrent access from multiple goroutines.
var invocations sync.Map

// currentInvocation returns the active invocation for this goroutine,
// or nil when none is established.
func currentInvocation() *Invocation {
	if v, ok := invocations.Load(goid.Get()); ok {
		return v.(*Invocation)
	}
	return nil
}

// invoke runs fn with inv as the ambient invocation, restoring the previous
// one on exit. inv may be nil to run fn with no context at all.
func invoke(inv *Invocation, fn func()) {
	gid := goid.Get()
	prev, hadPrev := invocations.Load(gid)

	if inv == nil {
		invocations.Delete(gid)
	} else {
		invocations.Store(gid, inv)
	}

	defer func() {
		if hadPrev {
			invocations.Store(gid, prev)
		} else {
			invocations.Delete(gid)
		}
	}()

	fn()
}

// WithInvocation runs fn under the given invocation context. The renderer
// uses this to establish the current subscriber and host while it walks a
// template, and goroutines spawned from reactive code use it to carry the
// context over explicitly.
//
// Example:
//
//	sub := qwik.NewHostSubscription(node, qwik.AttributeProperty("class"))
//	qwik.WithInvocation(&qwik.Invocation{Subscriber: sub, Host: node, Container: c}, func() {
//	    class := classSignal.Get() // subscribes node's "class" binding
//	    _ = class
//	})
func WithInvocation(inv *Invocation, fn func()) {
	invoke(inv, fn)
}

// Untracked runs fn with the current subscriber cleared, so signal reads
// inside do not register dependencies. Host, container, and locale are kept.
//
// For single reads, Signal.Peek is cheaper and clearer in intent.
func Untracked(fn func()) {
	inv := currentInvocation()
	if inv == nil {
		fn()
		return
	}
	cleared := *inv
	cleared.Subscriber = nil
	invoke(&cleared, fn)
}

// Locale returns the locale of the current invocation context. Outside any
// context it returns the first default when one is supplied and panics with
// ErrNoLocale otherwise.
func Locale(defaults ...string) string {
	if inv := currentInvocation(); inv != nil {
		if inv.Locale != "" {
			return inv.Locale
		}
		if inv.Container != nil {
			if l := inv.Container.Locale(); l != "" {
				return l
			}
		}
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	panic(ErrNoLocale)
}
