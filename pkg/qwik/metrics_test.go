package qwik

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRecordSchedulerActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("testns"))

	c := newTestContainer(WithMetrics(m))
	host := newTestHost()

	runs := 0
	task := NewTask(c, host, 0, TaskFlagTask, func(tc *TaskCtx) error {
		runs++
		return nil
	})
	task.Schedule()
	task.Schedule() // coalesces with the pending chore
	c.sched.Flush()

	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	counts := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if counter := metric.GetCounter(); counter != nil {
				counts[mf.GetName()] += counter.GetValue()
			}
		}
	}

	if got := counts["testns_scheduler_chores_scheduled_total"]; got != 1 {
		t.Errorf("chores_scheduled_total = %v, want 1", got)
	}
	if got := counts["testns_scheduler_chores_coalesced_total"]; got != 1 {
		t.Errorf("chores_coalesced_total = %v, want 1", got)
	}
	if got := counts["testns_scheduler_chores_executed_total"]; got != 1 {
		t.Errorf("chores_executed_total = %v, want 1", got)
	}
}

func TestMetricsNilIsSafe(t *testing.T) {
	var m *Metrics
	m.choreScheduled(ChoreTask)
	m.choreCoalesced(ChoreTask)
	m.choreExecuted(ChoreTask)
	m.flushObserved(0)
	m.taskRetried()
}

func TestMetricsConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithConstLabels(prometheus.Labels{"container": "main"}),
		WithBuckets([]float64{0.001, 0.01}),
	)

	c := newTestContainer(WithMetrics(m))
	c.sched.Flush()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != "qwik_scheduler_flush_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "container" && label.GetValue() == "main" {
					return
				}
			}
		}
	}
	t.Error("flush histogram missing the configured const label")
}
