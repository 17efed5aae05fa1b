package qwik

import (
	"errors"
	"testing"
)

func TestTracingSchedulerRunsNormally(t *testing.T) {
	c := newTestContainer(WithTracing("qwik-test"))
	host := newTestHost()
	sig := NewSignal(0)

	runs := 0
	task := NewTask(c, host, 0, TaskFlagTask, func(tc *TaskCtx) error {
		runs++
		tc.Track(sig)
		return nil
	})
	task.Schedule()
	c.sched.Flush()

	sig.Set(1)
	c.sched.Flush()

	if runs != 2 {
		t.Errorf("runs = %d, want 2 with tracing enabled", runs)
	}
}

func TestTracingNilIsSafe(t *testing.T) {
	var tr *tracing
	ctx, finishFlush := tr.flushSpan()
	finish := tr.choreSpan(ctx, &Chore{Kind: ChoreTask})
	finish(errors.New("ignored"))
	finishFlush()
}
