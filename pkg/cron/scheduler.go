package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"estacrm_backend/pkg/metrics"
	"estacrm_backend/pkg/utils/sentry"
)

const jobTimeout = 10 * time.Minute

// Job is one scheduled task. Run must honour ctx cancellation.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	logger := cron.PrintfLogger(zap.NewStdLog(log.Named("cron")))
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		log: log,
	}
}

// Add registers job under a standard five field cron spec.
func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}
	s.log.Info("cron job registered", zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	metrics.RecordCronRun(job.Name(), err)
	if err != nil {
		s.log.Error("cron job failed", zap.String("job", job.Name()), zap.Error(err))
		sentry.CaptureError(err, map[string]interface{}{"job": job.Name()})
		return
	}
	s.log.Info("cron job finished", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cron jobs still running at shutdown")
	}
}
