package qwik

import (
	"log"
	"sync"
	"time"
)

// Scheduler collects pending chores, coalesces them by (kind, target,
// property), and drains them in kind-precedence order. Draining runs to a
// fixed point: chores enqueued by a running chore are processed in the same
// flush.
//
// Execution is cooperative: one flush at a time, one chore at a time. A
// flush entered while another is draining returns immediately; the running
// flush picks up whatever was enqueued meanwhile.
type Scheduler struct {
	container Container
	renderer  Renderer
	strategy  ReadinessStrategy

	metrics *Metrics
	tracing *tracing

	mu       sync.Mutex
	queue    map[choreKey]*Chore
	seq      uint64
	flushing bool
	docReady bool
	docIdle  bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithRenderer supplies the renderer that executes component, node-diff, and
// node-prop chores. Without one, render chores are dropped.
func WithRenderer(r Renderer) SchedulerOption {
	return func(s *Scheduler) {
		s.renderer = r
	}
}

// WithReadiness sets the visible-task readiness strategy.
func WithReadiness(strategy ReadinessStrategy) SchedulerOption {
	return func(s *Scheduler) {
		s.strategy = strategy
	}
}

// WithMetrics attaches Prometheus metrics to the scheduler.
func WithMetrics(m *Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithTracing enables OpenTelemetry spans for flushes and chores.
// An empty name uses the default tracer name.
func WithTracing(tracerName string) SchedulerOption {
	return func(s *Scheduler) {
		s.tracing = newTracing(tracerName)
	}
}

// NewScheduler creates a scheduler for the given container.
func NewScheduler(c Container, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		container: c,
		queue:     make(map[choreKey]*Chore),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule enqueues a chore. Re-enqueuing for the same (kind, target,
// property) overwrites the pending chore with the latest payload instead of
// duplicating it; the original queue position is kept.
func (s *Scheduler) Schedule(ch *Chore) {
	key := ch.key()

	s.mu.Lock()
	if existing, ok := s.queue[key]; ok {
		ch.seq = existing.seq
		s.queue[key] = ch
		s.mu.Unlock()
		s.metrics.choreCoalesced(ch.Kind)
		return
	}
	s.seq++
	ch.seq = s.seq
	s.queue[key] = ch
	s.mu.Unlock()

	s.metrics.choreScheduled(ch.Kind)
}

// Pending returns the number of chores waiting in the queue.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// DocumentReady fires the document-ready trigger and flushes any visible
// tasks it releases.
func (s *Scheduler) DocumentReady() {
	s.mu.Lock()
	s.docReady = true
	s.mu.Unlock()
	s.Flush()
}

// DocumentIdle fires the document-idle trigger. Idle implies ready.
func (s *Scheduler) DocumentIdle() {
	s.mu.Lock()
	s.docReady = true
	s.docIdle = true
	s.mu.Unlock()
	s.Flush()
}

// Flush drains the queue to a fixed point: lowest kind first, enqueue order
// within a kind, visible tasks only after their readiness trigger fired.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.mu.Unlock()

	start := time.Now()
	ctx, finish := s.tracing.flushSpan()

	for {
		s.mu.Lock()
		ch := s.nextLocked()
		if ch == nil {
			s.flushing = false
			s.mu.Unlock()
			break
		}
		delete(s.queue, ch.key())
		s.mu.Unlock()

		s.runChore(ctx, ch)
	}

	finish()
	s.metrics.flushObserved(time.Since(start))
}

// nextLocked picks the eligible chore with the lowest (kind, seq).
func (s *Scheduler) nextLocked() *Chore {
	var best *Chore
	for _, ch := range s.queue {
		if ch.Kind == ChoreVisible && !s.visibleEligibleLocked() {
			continue
		}
		if best == nil || ch.Kind < best.Kind ||
			(ch.Kind == best.Kind && ch.seq < best.seq) {
			best = ch
		}
	}
	return best
}

func (s *Scheduler) visibleEligibleLocked() bool {
	if s.strategy == ReadinessDocumentIdle {
		return s.docIdle
	}
	return s.docReady
}

// runChore executes one dequeued chore. Render chores go to the renderer;
// task chores run the task and arm a retry when the body suspends.
func (s *Scheduler) runChore(ctx spanContext, ch *Chore) {
	if DebugMode {
		log.Printf("qwik: run chore %s seq=%d", ch.Kind, ch.seq)
	}
	finish := s.tracing.choreSpan(ctx, ch)
	s.metrics.choreExecuted(ch.Kind)

	var err error
	switch ch.Kind {
	case ChoreResource, ChoreTask, ChoreVisible:
		// Task.Run routes its own failures to the container handler.
		err = s.runTaskChore(ch)

	case ChoreComponent:
		if s.renderer != nil {
			if err = s.renderer.RenderComponent(ch.Host, ch.RenderFn, ch.Props); err != nil {
				s.container.HandleError(err, ch.Host)
			}
		}

	case ChoreNodeDiff:
		if s.renderer != nil {
			if err = s.renderer.DiffNode(ch.Host, ch.Target, ch.Signal); err != nil {
				s.container.HandleError(err, ch.Host)
			}
		}

	case ChoreNodeProp:
		if s.renderer != nil {
			if err = s.renderer.UpdateNodeProp(ch.Host, ch.Property, ch.Signal); err != nil {
				s.container.HandleError(err, ch.Host)
			}
		}
	}

	finish(err)
}

func (s *Scheduler) runTaskChore(ch *Chore) error {
	task := ch.Task
	if task == nil || task.Flags()&TaskFlagDirty == 0 {
		return nil
	}

	err := task.Run()
	if suspended, ok := AsSuspended(err); ok {
		s.metrics.taskRetried()
		s.retryWhenSettled(suspended, ch)
	}
	return err
}

// retryWhenSettled re-enqueues a suspended task's chore once the awaited
// value settles, then flushes. The whole body runs again from the top.
func (s *Scheduler) retryWhenSettled(suspended *Suspended, ch *Chore) {
	go func() {
		if suspended.Done != nil {
			<-suspended.Done
		}
		ch.Task.setDirty()
		s.Schedule(&Chore{
			Kind:         ch.Kind,
			Host:         ch.Host,
			Task:         ch.Task,
			Subscription: ch.Subscription,
		})
		s.Flush()
	}()
}
