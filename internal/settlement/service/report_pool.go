package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolReportingService fans collection reports out over a bounded
// worker pool. Run requests stay on the calling goroutine; only the
// high-volume reporting path is pooled.
type WorkerPoolReportingService struct {
	baseService ReportingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolReportingService(
	baseService ReportingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolReportingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolReportingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ReportCollection submits a collection report to the worker pool and waits
// for its outcome so the consumer's offset commit still reflects it.
func (s *WorkerPoolReportingService) ReportCollection(ctx context.Context, event *shared.CollectionEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Submitting collection report to worker pool",
		"reference", event.Reference,
		"business_id", event.BusinessID.String(),
	)

	resultChan := make(chan error, 1)

	reference := event.Reference
	s.mu.Lock()
	s.results[reference] = resultChan
	s.mu.Unlock()

	// Copy the event to avoid data races with the caller
	eventCopy := *event

	err := s.pool.Submit(func() {
		err := s.baseService.ReportCollection(ctx, &eventCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, reference)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, reference)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit collection report to worker pool",
			"reference", event.Reference,
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolReportingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolReportingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolReportingService) Capacity() int {
	return s.pool.Cap()
}
