package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
)

type mockRunner struct {
	mu     sync.Mutex
	runs   int
	err    error
	panics bool
	ran    chan struct{}
}

func newMockRunner() *mockRunner {
	return &mockRunner{ran: make(chan struct{}, 16)}
}

func (m *mockRunner) RunCycle(ctx context.Context) error {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()
	m.ran <- struct{}{}
	if m.panics {
		panic("cycle exploded")
	}
	return m.err
}

func (m *mockRunner) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

type mockGate struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (g *mockGate) Ready(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.failures {
		return errors.New("not ready")
	}
	return nil
}

func testLogger() *logging.Logger {
	return logging.Default()
}

func waitForRun(t *testing.T, runner *mockRunner) {
	t.Helper()
	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle to run")
	}
}

func TestSchedulerRunsImmediatelyOnStart(t *testing.T) {
	runner := newMockRunner()
	s := NewScheduler(runner, nil, Config{Interval: time.Hour}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	waitForRun(t, runner)
	assert.Equal(t, 1, runner.runCount())
}

func TestSchedulerWaitsForGate(t *testing.T) {
	runner := newMockRunner()
	gate := &mockGate{failures: 2}
	s := NewScheduler(runner, gate, Config{
		Interval:  time.Hour,
		GateRetry: 5 * time.Millisecond,
	}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	waitForRun(t, runner)

	gate.mu.Lock()
	calls := gate.calls
	gate.mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestSchedulerNeverRunsWhileGateClosed(t *testing.T) {
	runner := newMockRunner()
	gate := &mockGate{failures: 1 << 30}
	s := NewScheduler(runner, gate, Config{
		Interval:  time.Hour,
		GateRetry: time.Millisecond,
	}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Stop())

	gate.mu.Lock()
	calls := gate.calls
	gate.mu.Unlock()
	assert.Greater(t, calls, 1)
	assert.Zero(t, runner.runCount())
}

func TestSchedulerRunsOnInterval(t *testing.T) {
	runner := newMockRunner()
	s := NewScheduler(runner, nil, Config{Interval: 20 * time.Millisecond}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	waitForRun(t, runner)
	waitForRun(t, runner)
	waitForRun(t, runner)
	assert.GreaterOrEqual(t, runner.runCount(), 3)
}

func TestSchedulerSurvivesPanic(t *testing.T) {
	runner := newMockRunner()
	runner.panics = true
	s := NewScheduler(runner, nil, Config{Interval: 20 * time.Millisecond}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	waitForRun(t, runner)
	waitForRun(t, runner)
	assert.GreaterOrEqual(t, runner.runCount(), 2)
}

func TestSchedulerRecordsErrors(t *testing.T) {
	runner := newMockRunner()
	runner.err = errors.New("fetch failed")
	s := NewScheduler(runner, nil, Config{Interval: time.Hour}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	waitForRun(t, runner)
	require.NoError(t, s.Stop())

	snapshot := s.GetMetrics()
	assert.Equal(t, int64(1), snapshot["cycles"])
	assert.Equal(t, int64(1), snapshot["cycle_errors"])
}

func TestSchedulerDoubleStart(t *testing.T) {
	runner := newMockRunner()
	s := NewScheduler(runner, nil, Config{Interval: time.Hour}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	s := NewScheduler(newMockRunner(), nil, Config{Interval: time.Hour}, testLogger())
	assert.Error(t, s.Stop())
}

func TestSchedulerStopWaitsForLoop(t *testing.T) {
	runner := newMockRunner()
	s := NewScheduler(runner, nil, Config{Interval: time.Hour}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	waitForRun(t, runner)
	require.NoError(t, s.Stop())

	runs := runner.runCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, runs, runner.runCount())
}
