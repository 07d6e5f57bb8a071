package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
	"github.com/kpiwatch/kpiwatch/internal/logger"
)

// Runner executes a single indicator run. Satisfied by *Executor;
// narrowed to an interface so scheduler tests can stub it.
type Runner interface {
	Run(ctx context.Context, ind *entities.Indicator, now time.Time) entities.ExecutionRecord
}

// Due reports whether an indicator should run at the given time: active,
// and either never run or past its frequency interval. Equality counts as
// due.
func Due(ind *entities.Indicator, now time.Time) bool {
	if !ind.Active {
		return false
	}
	if ind.LastRun == nil {
		return true
	}
	return now.Sub(*ind.LastRun) >= time.Duration(ind.FrequencyMinutes)*time.Minute
}

type dispatch struct {
	ind   entities.Indicator
	token string
}

// Scheduler drives the engine: a fixed-interval tick selects due
// indicators, claims their leases, and hands them to a bounded worker
// pool. An indicator whose lease is still held from a prior run is
// silently skipped and retried on the next tick.
type Scheduler struct {
	indicators IndicatorSource
	runner     Runner
	leases     *LeaseMap
	clock      Clock
	interval   time.Duration
	metrics    *Metrics
	log        logger.Logger

	queue   chan dispatch
	workers sync.WaitGroup
	loop    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stop    chan struct{}
}

// NewScheduler creates a Scheduler with the given worker pool size. The
// queue is sized to the pool so a slow backend applies backpressure via
// lease deferral rather than unbounded buffering.
func NewScheduler(indicators IndicatorSource, runner Runner, leases *LeaseMap, clock Clock, interval time.Duration, workers int, metrics *Metrics, log logger.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		indicators: indicators,
		runner:     runner,
		leases:     leases,
		clock:      clock,
		interval:   interval,
		metrics:    metrics,
		log:        log,
		queue:      make(chan dispatch, workers),
	}
}

// Start launches the worker pool and the tick loop. It returns immediately;
// the loop runs until the context is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	stopCh := s.stop
	s.mu.Unlock()

	workers := cap(s.queue)
	for i := 0; i < workers; i++ {
		s.workers.Add(1)
		go s.worker(ctx)
	}

	s.loop.Add(1)
	go func() {
		defer s.loop.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Tick(ctx, s.clock.Now())
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the tick loop, then drains the pool and waits for in-flight
// runs to finish. The loop is joined before the queue closes so no tick
// can send on a closed channel.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stop)
	s.mu.Unlock()

	s.loop.Wait()
	close(s.queue)
	s.workers.Wait()
}

// Tick examines all active indicators and dispatches the due subset.
// Lease acquisition is atomic, so concurrent ticks never double-dispatch
// the same indicator; a contended indicator stays eligible next tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	active, err := s.indicators.GetActive(ctx)
	if err != nil {
		s.log.Error("failed to load active indicators", logger.Error(err))
		return
	}

	dispatched := 0
	for i := range active {
		ind := active[i]
		if !Due(&ind, now) {
			continue
		}
		token, ok := s.leases.TryAcquire(ind.ID)
		if !ok {
			// Expected contention: a prior run is still in flight.
			s.metrics.leaseSkipped()
			continue
		}
		select {
		case s.queue <- dispatch{ind: ind, token: token}:
			dispatched++
		default:
			// Pool saturated; release and defer to the next tick.
			s.leases.Release(ind.ID, token)
		}
	}
	if dispatched > 0 {
		s.log.Debug("tick dispatched indicators",
			logger.Int("dispatched", dispatched),
			logger.Int("active", len(active)))
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.workers.Done()
	for d := range s.queue {
		s.runOne(ctx, d)
	}
}

// runOne executes a dispatched indicator and releases its lease
// unconditionally, so a failed run can never starve the indicator beyond
// its execution timeout.
func (s *Scheduler) runOne(ctx context.Context, d dispatch) {
	defer s.leases.Release(d.ind.ID, d.token)
	s.runner.Run(ctx, &d.ind, s.clock.Now())
}
