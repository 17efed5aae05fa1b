package qwik

import "testing"

func TestDerivedCapturedArgs(t *testing.T) {
	d := NewDerived(func(args ...any) int {
		return args[0].(int) * args[1].(int)
	}, 3, 4)

	if got := d.Peek(); got != 12 {
		t.Errorf("Peek() = %d, want 12", got)
	}
	if got := d.Args(); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("Args() = %v, want [3 4]", got)
	}
}

func TestDerivedStructuralEvaluation(t *testing.T) {
	sig := NewSignal(1)
	d := NewDerived(func(args ...any) int {
		return sig.Get() + args[0].(int)
	}, 100)

	// Evaluated with no container in scope: computes directly, no edges.
	if got := d.Peek(); got != 101 {
		t.Fatalf("Peek() = %d, want 101", got)
	}
	if sig.base.hasSubs() {
		t.Error("structural evaluation subscribed to a signal")
	}

	// Cached until invalidated.
	sig.Set(2)
	if got := d.Peek(); got != 101 {
		t.Errorf("Peek() after untracked write = %d, want 101 (cached)", got)
	}
	d.Invalidate()
	if got := d.Peek(); got != 102 {
		t.Errorf("Peek() after Invalidate = %d, want 102", got)
	}
}

func TestDerivedTracksUnderContainer(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()

	price := NewSignal(10)
	total := NewDerived(func(args ...any) int {
		return price.Get() * args[0].(int)
	}, 3)

	runs := 0
	var seen []int
	consumer := NewTask(c, host, 0, TaskFlagTask, func(tc *TaskCtx) error {
		runs++
		seen = append(seen, tc.Track(total).(int))
		return nil
	})
	consumer.Schedule()
	c.sched.Flush()

	if seen[0] != 30 {
		t.Fatalf("first value = %d, want 30", seen[0])
	}

	price.Set(20)
	c.sched.Flush()

	if runs != 2 {
		t.Errorf("runs after dependency change = %d, want 2", runs)
	}
	if seen[1] != 60 {
		t.Errorf("value on rerun = %d, want 60", seen[1])
	}
}

func TestDerivedNodeDiffBinding(t *testing.T) {
	r := newTestRenderer()
	c := newTestContainer(WithRenderer(r))
	host := newTestHost()

	name := NewSignal("a")
	upper := NewDerived(func(args ...any) string {
		return name.Get() + "!"
	})

	sub := NewHostSubscription(host, NodeDiffProperty())
	WithInvocation(&Invocation{Subscriber: sub, Host: host, Container: c}, func() {
		_ = upper.Get()
	})

	name.Set("b")
	c.sched.Flush()

	if got := r.log.list(); len(got) != 1 || got[0] != "node-diff" {
		t.Fatalf("renderer calls = %v, want [node-diff]", got)
	}
	// The chore reports the derivation, not the root signal.
	if origin := r.lastOrigin(); origin != AnySignal(upper) {
		t.Errorf("chore origin is not the derived cell")
	}
}
