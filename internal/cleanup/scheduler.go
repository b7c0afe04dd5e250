package cleanup

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner is what the scheduler drives.
type Runner interface {
	Stats(ctx context.Context) (Stats, error)
	ProcessPending(ctx context.Context, limit int) (Result, error)
}

// Scheduler runs a cleanup pass at start and then on a cron schedule.
// Overlapping runs are skipped.
type Scheduler struct {
	runner    Runner
	log       *zap.Logger
	schedule  string
	batchSize int

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. schedule uses robfig/cron syntax, e.g. "@every 24h".
func NewScheduler(runner Runner, schedule string, batchSize int, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if schedule == "" {
		schedule = "@every 24h"
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Scheduler{runner: runner, log: log, schedule: schedule, batchSize: batchSize}
}

// Start registers the job and kicks off an immediate pass. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	logger := cronLogger{s.log.Sugar()}
	c := cron.New(cron.WithLogger(logger))
	job := cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(s.runOnce))
	if _, err := c.AddJob(s.schedule, job); err != nil {
		s.cancel()
		return err
	}

	s.cron = c
	s.started = true
	c.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.Run()
	}()

	s.log.Info("cleanup scheduler started", zap.String("schedule", s.schedule), zap.Int("batch_size", s.batchSize))
	return nil
}

// Stop halts scheduling and cancels an in-flight pass, returning once it has exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	ctx := c.Stop()
	cancel()
	<-ctx.Done()
	s.wg.Wait()
	s.log.Info("cleanup scheduler stopped")
}

func (s *Scheduler) runOnce() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	stats, err := s.runner.Stats(ctx)
	if err != nil {
		s.log.Error("cleanup stats failed", zap.Error(err))
		return
	}
	if stats.Pending == 0 && stats.InProgress == 0 {
		s.log.Debug("no pending cleanup tasks")
		return
	}

	res, err := s.runner.ProcessPending(ctx, s.batchSize)
	if err != nil {
		s.log.Error("cleanup pass failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled cleanup completed",
		zap.Int("pending_before", stats.Pending),
		zap.Int("processed", res.Processed),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
