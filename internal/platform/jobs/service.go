package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const JobRosterArchive = "roster_archive"

// drainTimeout bounds how long queued jobs may keep running after shutdown starts.
const drainTimeout = 30 * time.Second

// Service runs background work on a single worker goroutine. Enqueue never blocks: when the
// queue is full the job is dropped and reported.
type Service struct {
	logger *zap.Logger
	queue  chan job
	wg     sync.WaitGroup
}

type job struct {
	Type string
	Key  string
	Run  func(context.Context) error
}

func New(logger *zap.Logger, capacity int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = 128
	}
	return &Service{logger: logger, queue: make(chan job, capacity)}
}

// Start launches the worker. Once ctx is cancelled the worker runs what is already queued, then
// exits; Wait blocks until it has.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType, key string, run func(context.Context) error) bool {
	select {
	case s.queue <- job{Type: jobType, Key: key, Run: run}:
		return true
	default:
		s.logger.Warn("job queue full", zap.String("jobType", jobType), zap.String("key", key))
		return false
	}
}

// RunNow executes run inline with the same logging as queued jobs.
func (s *Service) RunNow(ctx context.Context, jobType, key string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Type: jobType, Key: key, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.drain(ctx)
			return
		}
		select {
		case <-ctx.Done():
			s.drain(ctx)
			return
		case j := <-s.queue:
			_ = s.runJob(ctx, j)
		}
	}
}

// drain runs the jobs still queued at shutdown on a context detached from ctx. Jobs left when the
// drain window closes are logged as abandoned.
func (s *Service) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	ran := 0
	for {
		if drainCtx.Err() != nil {
			if left := len(s.queue); left > 0 {
				s.logger.Warn("job queue abandoned", zap.Int("pending", left), zap.Int("drained", ran))
			}
			return
		}
		select {
		case j := <-s.queue:
			_ = s.runJob(drainCtx, j)
			ran++
		default:
			if ran > 0 {
				s.logger.Info("job queue drained", zap.Int("drained", ran))
			}
			return
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	start := time.Now()
	err := j.Run(ctx)
	fields := []zap.Field{
		zap.String("jobType", j.Type),
		zap.String("key", j.Key),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		s.logger.Warn("job run failed", append(fields, zap.Error(err))...)
		return err
	}
	s.logger.Info("job completed", fields...)
	return nil
}
