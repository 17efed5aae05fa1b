package qwik

import "errors"

// ErrReadOnly is reported when a write reaches a computed or derived signal.
// Derivations own their value; mutate the signals they read instead.
var ErrReadOnly = errors.New("qwik: computed and derived signals are read-only")

// ErrCrossContainer is reported when a signal bound to one container is read
// or written under a different container. Signals must not cross containers;
// create a separate signal per container instead of sharing one.
var ErrCrossContainer = errors.New("qwik: signals must not cross containers")

// ErrTrackWithoutProp is reported when Track is given a plain object that is
// neither a signal nor accompanied by a property name. There is nothing to
// subscribe to on an arbitrary value.
var ErrTrackWithoutProp = errors.New("qwik: track object without prop")

// ErrInvalidProperty is reported when a host subscription is built with a
// zero or unknown property tag. Use one of the property constructors:
// ComponentProperty, NodeDiffProperty, or AttributeProperty.
var ErrInvalidProperty = errors.New("qwik: invalid effect property tag")

// ErrNoLocale is reported when Locale is called outside any invocation
// context and no default was supplied.
var ErrNoLocale = errors.New("qwik: locale read outside invocation context and no default provided")

// Suspended is returned by a task body that reached a value that has not
// settled yet. It is a retry signal, not a failure: the scheduler re-enqueues
// the task's chore once Done closes and the whole body runs again.
type Suspended struct {
	// Done closes when the awaited value settles.
	Done <-chan struct{}
}

// Error implements the error interface.
func (s *Suspended) Error() string {
	return "qwik: task suspended awaiting an unsettled value"
}

// Suspend wraps a completion channel in the retry signal returned from a task
// body.
//
// Example:
//
//	func(tc *qwik.TaskCtx) error {
//	    if !loaded() {
//	        return qwik.Suspend(loadDone)
//	    }
//	    // ... use the loaded value
//	    return nil
//	}
func Suspend(done <-chan struct{}) error {
	return &Suspended{Done: done}
}

// AsSuspended reports whether err carries a suspension, returning the signal
// when it does.
func AsSuspended(err error) (*Suspended, bool) {
	var s *Suspended
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}
