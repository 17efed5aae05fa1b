package qwik

import "testing"

func TestLocaleDefaultOutsideContext(t *testing.T) {
	if got := Locale("fr-FR"); got != "fr-FR" {
		t.Errorf("Locale(fr-FR) = %q, want fr-FR", got)
	}
}

func TestLocalePanicsOutsideContext(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrNoLocale {
			t.Errorf("recover() = %v, want ErrNoLocale", r)
		}
	}()
	Locale()
}

func TestLocaleFromInvocation(t *testing.T) {
	WithInvocation(&Invocation{Locale: "de-DE"}, func() {
		if got := Locale(); got != "de-DE" {
			t.Errorf("Locale() = %q, want de-DE", got)
		}
	})
}

func TestLocaleFallsBackToContainer(t *testing.T) {
	c := newTestContainer()
	WithInvocation(&Invocation{Container: c}, func() {
		if got := Locale(); got != "en-US" {
			t.Errorf("Locale() = %q, want container locale en-US", got)
		}
	})
}

func TestWithInvocationNestsAndRestores(t *testing.T) {
	outer := &Invocation{Locale: "outer"}
	inner := &Invocation{Locale: "inner"}

	WithInvocation(outer, func() {
		if currentInvocation() != outer {
			t.Error("outer invocation not established")
		}
		WithInvocation(inner, func() {
			if currentInvocation() != inner {
				t.Error("inner invocation not established")
			}
		})
		if currentInvocation() != outer {
			t.Error("outer invocation not restored after nested call")
		}
	})
	if currentInvocation() != nil {
		t.Error("invocation leaked past WithInvocation")
	}
}

func TestUntrackedClearsSubscriber(t *testing.T) {
	c := newTestContainer()
	host := newTestHost()
	tracked := NewSignal(1)
	peeked := NewSignal(2)

	runs := 0
	task := NewTask(c, host, 0, TaskFlagTask, func(tc *TaskCtx) error {
		runs++
		tc.Track(func() any {
			v := tracked.Get()
			Untracked(func() {
				v += peeked.Get()
			})
			return v
		})
		return nil
	})
	task.Schedule()
	c.sched.Flush()

	peeked.Set(99)
	if pending := c.sched.Pending(); pending != 0 {
		t.Errorf("Pending() after untracked-read write = %d, want 0", pending)
	}

	tracked.Set(10)
	c.sched.Flush()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestUntrackedOutsideContext(t *testing.T) {
	ran := false
	Untracked(func() { ran = true })
	if !ran {
		t.Error("Untracked did not run its body")
	}
}

func TestInvocationSubscriber(t *testing.T) {
	if currentInvocation() != nil {
		t.Fatal("invocation present outside WithInvocation")
	}
	host := newTestHost()
	sub := NewHostSubscription(host, ComponentProperty())
	WithInvocation(&Invocation{Subscriber: sub}, func() {
		if inv := currentInvocation(); inv == nil || inv.Subscriber != sub {
			t.Error("installed subscriber not visible on the invocation")
		}
		Untracked(func() {
			if inv := currentInvocation(); inv == nil || inv.Subscriber != nil {
				t.Error("subscriber survived Untracked")
			}
		})
	})
}
