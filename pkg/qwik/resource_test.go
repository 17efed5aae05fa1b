package qwik

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestResourceFetchSuccess(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()

	r := NewResource(c, host, 0, func(tc *TaskCtx) (string, error) {
		return "loaded", nil
	})
	if got := r.State(); got != ResourcePending {
		t.Fatalf("state before flush = %v, want pending", got)
	}

	c.sched.Flush()

	if got := r.State(); got != ResourceReady {
		t.Errorf("state = %v, want ready", got)
	}
	if got := r.Value(); got != "loaded" {
		t.Errorf("value = %q, want loaded", got)
	}
	if r.Loading() {
		t.Error("Loading() = true after success")
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestResourceRejectionStaysOnResource(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()

	failed := errors.New("fetch failed")
	r := NewResource(c, host, 0, func(tc *TaskCtx) (int, error) {
		return 0, failed
	})
	c.sched.Flush()

	if got := r.State(); got != ResourceRejected {
		t.Errorf("state = %v, want rejected", got)
	}
	if !errors.Is(r.Err(), failed) {
		t.Errorf("Err() = %v, want the fetch failure", r.Err())
	}
	// Rejection is the resource's state, not a container-level failure.
	if got := c.errorCount(); got != 0 {
		t.Errorf("handled errors = %d, want 0", got)
	}
}

func TestResourceRefetchOnDependencyChange(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()
	userID := NewSignal(1)

	fetches := 0
	r := NewResource(c, host, 0, func(tc *TaskCtx) (int, error) {
		fetches++
		id := tc.Track(userID).(int)
		return id * 100, nil
	})
	c.sched.Flush()

	if got := r.Value(); got != 100 {
		t.Fatalf("value = %d, want 100", got)
	}

	userID.Set(2)
	c.sched.Flush()

	if fetches != 2 {
		t.Errorf("fetches = %d, want 2", fetches)
	}
	if got := r.Value(); got != 200 {
		t.Errorf("value after refetch = %d, want 200", got)
	}
}

func TestResourceExplicitRefetch(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()

	fetches := 0
	r := NewResource(c, host, 0, func(tc *TaskCtx) (int, error) {
		fetches++
		return fetches, nil
	})
	c.sched.Flush()

	r.Refetch()
	c.sched.Flush()

	if fetches != 2 {
		t.Errorf("fetches = %d, want 2", fetches)
	}
	if got := r.Value(); got != 2 {
		t.Errorf("value = %d, want 2", got)
	}
}

func TestResourceSuspensionRetries(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()
	done := make(chan struct{})

	var fetches int32
	r := NewResource(c, host, 0, func(tc *TaskCtx) (string, error) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			return "", Suspend(done)
		}
		return "settled", nil
	})
	c.sched.Flush()

	if got := r.State(); got != ResourceLoading {
		t.Fatalf("state while suspended = %v, want loading", got)
	}

	close(done)
	waitFor(t, func() bool { return r.State() == ResourceReady })

	if got := r.Value(); got != "settled" {
		t.Errorf("value = %q, want settled", got)
	}
	if got := c.errorCount(); got != 0 {
		t.Errorf("handled errors = %d, want 0", got)
	}
}

func TestResourceConsumersTrackState(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()
	consumerHost := newTestHost()

	started := make(chan struct{})
	var once bool
	r := NewResource(c, host, 0, func(tc *TaskCtx) (int, error) {
		if !once {
			once = true
			return 0, Suspend(started)
		}
		return 7, nil
	})
	c.sched.Flush()

	var mu sync.Mutex
	var states []ResourceState
	consumer := NewTask(c, consumerHost, 0, TaskFlagTask, func(tc *TaskCtx) error {
		s := tc.Track(func() any { return r.State() }).(ResourceState)
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
		return nil
	})
	consumer.Schedule()
	c.sched.Flush()

	mu.Lock()
	firstState := states[0]
	mu.Unlock()
	if firstState != ResourceLoading {
		t.Fatalf("first observed state = %v, want loading", firstState)
	}

	close(started)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) >= 2 && states[len(states)-1] == ResourceReady
	})
}

func TestResourceStateString(t *testing.T) {
	cases := map[ResourceState]string{
		ResourcePending:  "pending",
		ResourceLoading:  "loading",
		ResourceReady:    "ready",
		ResourceRejected: "rejected",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("ResourceState(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestResourceHeldByTask(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()
	r := NewResource(c, host, 0, func(tc *TaskCtx) (int, error) { return 1, nil })

	task := r.Task()
	if task == nil {
		t.Fatal("Task() = nil")
	}
	if task.State() != any(r) {
		t.Error("task does not hold the resource as state")
	}
	if task.Flags()&TaskFlagResource == 0 {
		t.Error("resource task missing the resource flag")
	}
}
