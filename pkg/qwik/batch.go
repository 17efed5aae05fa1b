package qwik

import (
	"log"
	"sync"

	"github.com/petermattis/goid"
)

// pendingTrigger is one deferred dispatch captured during a batch.
type pendingTrigger struct {
	container Container
	origin    AnySignal
	sub       *EffectSubscription
}

// batchState tracks nested Batch calls on one goroutine.
type batchState struct {
	depth   int
	pending []pendingTrigger
}

// batches stores per-goroutine batch state.
var batches sync.Map

// Batch groups multiple signal writes into a single dispatch phase. Effect
// triggering is deferred until the outermost batch completes, then dispatched
// once per (effect, property) with the latest originating signal.
//
// Batches can be nested; dispatch only fires when the outermost batch ends.
//
// Example:
//
//	qwik.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	})
//	// A task tracking both re-runs once, not twice.
func Batch(fn func()) {
	gid := goid.Get()

	var st *batchState
	if v, ok := batches.Load(gid); ok {
		st = v.(*batchState)
	} else {
		st = &batchState{}
		batches.Store(gid, st)
	}

	st.depth++
	defer func() {
		st.depth--
		if st.depth == 0 {
			pending := st.pending
			st.pending = nil
			batches.Delete(gid)
			dispatchPending(pending)
		}
	}()

	fn()
}

// BatchNamed is Batch with a label logged in debug mode, so a trace can say
// which write group produced a dispatch.
func BatchNamed(name string, fn func()) {
	if DebugMode {
		log.Printf("qwik: batch %s start", name)
		defer log.Printf("qwik: batch %s end", name)
	}
	Batch(fn)
}

// queueInBatch captures a dispatch when a batch is active on this goroutine.
// Reports whether the dispatch was deferred.
func queueInBatch(c Container, origin AnySignal, subs []*EffectSubscription) bool {
	v, ok := batches.Load(goid.Get())
	if !ok {
		return false
	}
	st := v.(*batchState)
	if st.depth == 0 {
		return false
	}
	for _, sub := range subs {
		st.pending = append(st.pending, pendingTrigger{container: c, origin: origin, sub: sub})
	}
	return true
}

// dispatchPending deduplicates deferred triggers by (effect, property),
// keeping first-seen order and the latest payload, then dispatches.
func dispatchPending(pending []pendingTrigger) {
	if len(pending) == 0 {
		return
	}

	type dispatchKey struct {
		effect uint64
		prop   EffectProperty
	}
	index := make(map[dispatchKey]int, len(pending))
	unique := make([]pendingTrigger, 0, len(pending))

	for _, p := range pending {
		k := dispatchKey{effect: p.sub.Effect.EffectID(), prop: p.sub.Property}
		if i, ok := index[k]; ok {
			unique[i] = p
			continue
		}
		index[k] = len(unique)
		unique = append(unique, p)
	}

	for _, p := range unique {
		dispatchEffect(p.container, p.origin, p.sub)
	}
}
