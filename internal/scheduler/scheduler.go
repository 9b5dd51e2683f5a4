package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
	"github.com/tibiantis-tools/deathwatch/internal/metrics"
)

// Runner executes one full tracking cycle: fetch death logs for the
// roster, correlate against the enemy list and publish the reports.
type Runner interface {
	RunCycle(ctx context.Context) error
}

// Gate blocks scheduling until the downstream channel is ready to
// receive reports. A nil gate means no readiness requirement.
type Gate interface {
	Ready(ctx context.Context) error
}

// Config configures the tracking scheduler.
type Config struct {
	Interval  time.Duration
	GateRetry time.Duration
}

// Scheduler runs tracking cycles on a fixed interval. The first cycle
// fires as soon as the gate opens, not one interval later.
type Scheduler struct {
	mu       sync.RWMutex
	runner   Runner
	gate     Gate
	log      *logging.Logger
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	interval time.Duration

	gateRetry time.Duration

	stats cycleStats
}

type cycleStats struct {
	mu            sync.RWMutex
	cycles        int64
	errors        int64
	lastCycleTime time.Time
}

// NewScheduler creates a tracking scheduler.
func NewScheduler(runner Runner, gate Gate, cfg Config, log *logging.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.GateRetry <= 0 {
		cfg.GateRetry = 5 * time.Second
	}

	return &Scheduler{
		runner:    runner,
		gate:      gate,
		log:       log,
		interval:  cfg.Interval,
		gateRetry: cfg.GateRetry,
	}
}

// Start begins the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.log.Info("tracking scheduler starting", "interval", s.interval.String())

	s.wg.Add(1)
	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight cycle
// to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not running")
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("tracking scheduler stopped")
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	if !s.awaitGate(ctx) {
		return
	}

	s.executeCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.executeCycle(ctx)
		}
	}
}

// awaitGate blocks until the readiness check passes or the scheduler is
// shut down. No tracking cycle ever runs against a channel that has not
// reported ready.
func (s *Scheduler) awaitGate(ctx context.Context) bool {
	if s.gate == nil {
		return true
	}

	for attempt := 1; ; attempt++ {
		err := s.gate.Ready(ctx)
		if err == nil {
			s.log.Info("channel ready, tracking enabled")
			return true
		}
		s.log.Warn("channel not ready, retrying", "attempt", attempt, logging.Error(err))

		select {
		case <-ctx.Done():
			return false
		case <-s.stopChan:
			return false
		case <-time.After(s.gateRetry):
		}
	}
}

func (s *Scheduler) executeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RunsTotal.WithLabelValues("error").Inc()
			s.log.Error("tracking cycle panicked", "panic", fmt.Sprintf("%v", r))
			s.recordCycle(fmt.Errorf("panic: %v", r))
		}
	}()

	start := time.Now()
	err := s.runner.RunCycle(ctx)
	s.recordCycle(err)

	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		s.log.Error("tracking cycle failed", logging.Error(err), logging.Duration(time.Since(start).Milliseconds()))
		return
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	s.log.Info("tracking cycle finished", logging.Duration(time.Since(start).Milliseconds()))
}

func (s *Scheduler) recordCycle(err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	s.stats.cycles++
	s.stats.lastCycleTime = time.Now()
	if err != nil {
		s.stats.errors++
	}
}

// GetMetrics returns a snapshot of scheduler stats.
func (s *Scheduler) GetMetrics() map[string]interface{} {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	return map[string]interface{}{
		"cycles":          s.stats.cycles,
		"cycle_errors":    s.stats.errors,
		"last_cycle_time": s.stats.lastCycleTime.Format(time.RFC3339),
	}
}
