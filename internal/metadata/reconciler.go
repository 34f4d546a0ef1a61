package metadata

import (
	"context"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"imagevault/logger"
	"time"
)

type (
	// Reconciler periodically republishes records whose remote mirror is
	// missing. Runs as a singleton job so overlapping passes never race.
	Reconciler interface {
		Start(ctx context.Context) error
		Stop() error
	}

	reconciler struct {
		synchronizer Synchronizer
		interval     time.Duration
		scheduler    gocron.Scheduler
	}
)

func NewReconciler(sync Synchronizer, interval time.Duration) (Reconciler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &reconciler{
		synchronizer: sync,
		interval:     interval,
		scheduler:    scheduler,
	}, nil
}

func (r *reconciler) Start(ctx context.Context) error {
	job, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.run, ctx),
		gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return err
	}

	logger.Info("metadata reconciler scheduled",
		zap.String("job", job.Name()),
		zap.Duration("interval", r.interval))

	r.scheduler.Start()
	return nil
}

func (r *reconciler) run(ctx context.Context) {
	if err := r.synchronizer.Reconcile(ctx); err != nil {
		logger.Error("metadata reconciliation pass returned error",
			zap.Error(err))
	}
}

func (r *reconciler) Stop() error {
	return r.scheduler.Shutdown()
}
