package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is the overdue pass run on a schedule.
type Sweeper interface {
	SweepOverdue(ctx context.Context, dueAfter time.Duration) (int64, error)
}

// StartOverdueSweep runs the sweep on spec (standard cron syntax or descriptors like @hourly)
// until ctx is done.
func StartOverdueSweep(ctx context.Context, spec string, dueAfter time.Duration, s Sweeper, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := s.SweepOverdue(runCtx, dueAfter); err != nil {
			log.Error("overdue sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
