package clean

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned for unknown or already-expired run IDs.
var ErrRunNotFound = errors.New("run not found")

// ErrNoFiles is returned when a run is started without any input files.
var ErrNoFiles = errors.New("no input files provided")

// ServiceConfig tunes the run service.
type ServiceConfig struct {
	// MaxConcurrent bounds parallel runs (see RunLimiter).
	MaxConcurrent int
	// MaxWait is how long StartRun waits for a run slot.
	MaxWait time.Duration
	// Timeout caps the duration of a single run.
	Timeout time.Duration
	// Retention is how long a finished run stays retrievable before its
	// result is discarded. Nothing outlives the process.
	Retention time.Duration
}

// Service tracks cleaning runs: it starts them in the background under
// uuid keys, hands out results and discards finished runs after the
// retention window. All state is in-memory; every process start begins
// from empty state.
type Service struct {
	pipeline  *Pipeline
	limiter   *RunLimiter
	timeout   time.Duration
	retention time.Duration

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	ID        string
	FileNames []string
	StartedAt time.Time
	Done      chan struct{}

	// Result and Err are written once, before Done closes.
	Result *Result
	Err    error
}

// RunStatus is a non-blocking snapshot of one run.
type RunStatus struct {
	ID        string    `json:"id"`
	FileNames []string  `json:"file_names"`
	StartedAt time.Time `json:"started_at"`
	Finished  bool      `json:"finished"`
	Error     string    `json:"error,omitempty"`
}

// NewService creates a run service around the given pipeline.
func NewService(pipeline *Pipeline, cfg ServiceConfig) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 15 * time.Minute
	}
	return &Service{
		pipeline:  pipeline,
		limiter:   NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		timeout:   cfg.Timeout,
		retention: cfg.Retention,
		runs:      make(map[string]*activeRun),
	}
}

// StartRun begins a cleaning run over the given sources and returns its
// ID immediately; the heavy loop executes on its own goroutine so the
// caller's serving loop is never blocked. Once started, a run is not
// cancellable and proceeds to completion (or its timeout).
func (s *Service) StartRun(ctx context.Context, sources []Source) (string, error) {
	if len(sources) == 0 {
		return "", ErrNoFiles
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}

	run := &activeRun{
		ID:        runID,
		FileNames: names,
		StartedAt: time.Now(),
		Done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	// The run owns its own context: it must not die with the request
	// that started it.
	runCtx, cancel := context.WithTimeout(context.Background(), s.timeout)

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer close(run.Done)
		defer s.expire(runID)

		run.Result, run.Err = s.pipeline.Run(runCtx, sources)
	}()

	return runID, nil
}

// Result returns the outcome of a run, blocking until it completes.
func (s *Service) Result(ctx context.Context, runID string) (*Result, error) {
	run, err := s.get(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-run.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if run.Err != nil {
		return nil, fmt.Errorf("run %s failed: %w", runID, run.Err)
	}
	return run.Result, nil
}

// Status returns a snapshot of a run without blocking.
func (s *Service) Status(runID string) (RunStatus, error) {
	run, err := s.get(runID)
	if err != nil {
		return RunStatus{}, err
	}

	status := RunStatus{
		ID:        run.ID,
		FileNames: run.FileNames,
		StartedAt: run.StartedAt,
	}
	select {
	case <-run.Done:
		status.Finished = true
		if run.Err != nil {
			status.Error = run.Err.Error()
		}
	default:
	}
	return status, nil
}

// LimiterStatus reports the run limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until all active runs complete or ctx is cancelled.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) get(runID string) (*activeRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// expire drops the run after the retention window.
func (s *Service) expire(runID string) {
	time.AfterFunc(s.retention, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}
