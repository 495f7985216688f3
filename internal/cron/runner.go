package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner wraps the cron scheduler with logging and per-job panic recovery.
type Runner struct {
	c      *cron.Cron
	logger *zap.Logger
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		c:      cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// Add registers a job under a schedule spec ("@every 1h" or standard cron).
func (r *Runner) Add(spec, name string, fn func(ctx context.Context) error) error {
	_, err := r.c.AddFunc(spec, func() {
		defer func() {
			if rec := recover(); rec != nil && r.logger != nil {
				r.logger.Error("cron job panicked", zap.String("job", name), zap.Any("panic", rec))
			}
		}()
		start := time.Now()
		if err := fn(context.Background()); err != nil {
			if r.logger != nil {
				r.logger.Error("cron job failed", zap.String("job", name), zap.Error(err))
			}
			return
		}
		if r.logger != nil {
			r.logger.Debug("cron job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
		}
	})
	return err
}

func (r *Runner) Start() {
	r.c.Start()
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.c.Stop()
	<-ctx.Done()
}
