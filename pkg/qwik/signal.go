package qwik

import (
	"fmt"
	"reflect"
	"sync"
)

// Signal is a reactive value container. Reading it under an active
// invocation context subscribes the current effect; writing a different
// value triggers every dependent effect through the scheduler.
//
// The first tracked read binds the signal to that invocation's container.
// Once bound, the container never changes: use under another container
// panics with ErrCrossContainer.
type Signal[T any] struct {
	base signalBase

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal overrides the change check. If nil, identity equality is used.
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base:  signalBase{id: nextID()},
		value: initial,
	}
}

// Get returns the current value and subscribes the current effect, at most
// once per effect. Outside any invocation context this is a plain read.
func (s *Signal[T]) Get() T {
	s.base.trackRead()
	return s.Peek()
}

// Peek returns the current value without establishing a subscription.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores v and triggers dependent effects. Writing a value identical to
// the current one is a no-op: identity comparison, so NaN never equals NaN
// and two distinct pointers to equal structs are different values.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	changed := !s.equals(s.value, v)
	if changed {
		s.value = v
	}
	s.mu.Unlock()

	if changed {
		s.trigger()
	}
}

// Update atomically reads and updates the value under the same change rule
// as Set.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	changed := !s.equals(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.trigger()
	}
}

// Poke stores v without consuming or establishing any subscription: no
// effect is triggered. The untracked counterpart of Set.
func (s *Signal[T]) Poke(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Force triggers dependent effects without changing the value. Use after
// mutating the held value in place, where no new reference exists for the
// identity check to notice.
func (s *Signal[T]) Force() {
	s.trigger()
}

// WithEquals configures a custom change predicate, for value types where
// identity is too strict or too loose.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// SignalID returns the unique identifier for this signal.
func (s *Signal[T]) SignalID() uint64 {
	return s.base.id
}

// UntrackedAny implements AnySignal.
func (s *Signal[T]) UntrackedAny() any {
	return s.Peek()
}

func (s *Signal[T]) trackedAny() any {
	return s.Get()
}

func (s *Signal[T]) setAny(v any) error {
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("qwik: cannot store %T in signal %d", v, s.base.id)
	}
	s.Set(tv)
	return nil
}

func (s *Signal[T]) ref() *signalBase {
	return &s.base
}

func (s *Signal[T]) trigger() {
	triggerEffects(s.base.boundContainer(), s, s.base.snapshotSubs())
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return identityEqual(a, b)
}

// identityEqual compares with == for comparable kinds and by reference for
// slices, maps, funcs, and channels. Incomparable value types always report
// a change; WithEquals exists for callers that know better.
func identityEqual[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		// NaN != NaN by design of float comparison.
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	}

	ra, rb := reflect.ValueOf(any(a)), reflect.ValueOf(any(b))
	if !ra.IsValid() || !rb.IsValid() {
		return ra.IsValid() == rb.IsValid()
	}
	switch ra.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Slice, reflect.Func, reflect.UnsafePointer:
		if rb.Kind() != ra.Kind() {
			return false
		}
		if ra.IsNil() || rb.IsNil() {
			return ra.IsNil() && rb.IsNil()
		}
		return ra.Pointer() == rb.Pointer()
	}
	if ra.Comparable() && rb.Comparable() {
		return any(a) == any(b)
	}
	return false
}

var _ AnySignal = (*Signal[int])(nil)
