// Package scheduler publishes pending compatibility changes on a cron
// schedule, as an alternative to the admin update endpoint.
package scheduler

import (
	"context"
	"time"

	"plusnotify/pkg/logger"

	"github.com/robfig/cron/v3"
)

const updateTimeout = 5 * time.Minute

type Updater interface {
	Update(ctx context.Context) (int64, error)
}

type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	updater Updater
}

func New(ctx context.Context, updater Updater) *Scheduler {
	return &Scheduler{
		ctx:     ctx,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		updater: updater,
	}
}

// Start registers the update job under spec, a standard five-field cron
// expression, and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runUpdate); err != nil {
		return err
	}
	s.cron.Start()
	logger.Sugar.Infof("Publishing compatibility changes on schedule %q", spec)
	return nil
}

// Stop waits for a running update to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runUpdate() {
	ctx, cancel := context.WithTimeout(s.ctx, updateTimeout)
	defer cancel()

	if ctx.Err() != nil {
		logger.Sugar.Infof("Skipping scheduled update: %v", ctx.Err())
		return
	}

	delivered, err := s.updater.Update(ctx)
	if err != nil {
		logger.Sugar.Errorf("Scheduled update failed after %d deliveries: %v", delivered, err)
		return
	}
	logger.Sugar.Infof("Scheduled update delivered %d notifications", delivered)
}
