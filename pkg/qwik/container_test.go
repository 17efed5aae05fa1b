package qwik

import (
	"sync"
	"testing"
	"time"
)

// testHost is a minimal host element for tests.
type testHost struct {
	id    uint64
	props map[string]any
}

func newTestHost() *testHost {
	return &testHost{id: nextID(), props: map[string]any{}}
}

func (h *testHost) EffectID() uint64 { return h.id }
func (h *testHost) HostID() uint64   { return h.id }

type handledError struct {
	err  error
	host Host
}

// testContainer records handled errors and owns a scheduler.
type testContainer struct {
	sched  *Scheduler
	locale string

	mu     sync.Mutex
	errors []handledError
}

func newTestContainer(opts ...SchedulerOption) *testContainer {
	c := &testContainer{locale: "en-US"}
	c.sched = NewScheduler(c, opts...)
	return c
}

func (c *testContainer) Scheduler() *Scheduler { return c.sched }

func (c *testContainer) GetHostProp(host Host, name string) any {
	if h, ok := host.(*testHost); ok {
		return h.props[name]
	}
	return nil
}

func (c *testContainer) HandleError(err error, host Host) {
	c.mu.Lock()
	c.errors = append(c.errors, handledError{err: err, host: host})
	c.mu.Unlock()
}

func (c *testContainer) Locale() string { return c.locale }

func (c *testContainer) errorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

func (c *testContainer) lastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors[len(c.errors)-1].err
}

// callLog collects execution order across tasks and the renderer.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.entries = append(l.entries, s)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// testRenderer records render chores in order.
type testRenderer struct {
	log *callLog

	mu      sync.Mutex
	origins []AnySignal
	props   []string
}

func newTestRenderer() *testRenderer {
	return &testRenderer{log: &callLog{}}
}

func (r *testRenderer) RenderComponent(host Host, renderFn, props any) error {
	r.log.add("component")
	return nil
}

func (r *testRenderer) DiffNode(host, target Host, origin AnySignal) error {
	r.log.add("node-diff")
	r.mu.Lock()
	r.origins = append(r.origins, origin)
	r.mu.Unlock()
	return nil
}

func (r *testRenderer) UpdateNodeProp(host Host, prop string, origin AnySignal) error {
	r.log.add("node-prop")
	r.mu.Lock()
	r.origins = append(r.origins, origin)
	r.props = append(r.props, prop)
	r.mu.Unlock()
	return nil
}

func (r *testRenderer) callCount() int {
	return len(r.log.list())
}

func (r *testRenderer) lastOrigin() AnySignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.origins) == 0 {
		return nil
	}
	return r.origins[len(r.origins)-1]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
