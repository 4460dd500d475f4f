package watcher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dukapos/export-worker/internal/config"
	"github.com/dukapos/export-worker/internal/models"
)

// JobRunner is the slice of the export lifecycle the watcher drives.
type JobRunner interface {
	RunNext(ctx context.Context) (*models.ExportJob, error)
}

type Watcher struct {
	cfg    *config.Config
	runner JobRunner
	log    *logrus.Logger
}

func New(cfg *config.Config, runner JobRunner, log *logrus.Logger) *Watcher {
	return &Watcher{cfg: cfg, runner: runner, log: log}
}

// Start begins polling for pending export jobs. Each tick runs at most one
// job, synchronously; scale-out across processes is handled entirely by the
// atomic claim in the job repository, never by in-process locks.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.WorkerEnabled {
		w.log.Info("export worker disabled, not polling")
		<-ctx.Done()
		return ctx.Err()
	}

	w.log.WithField("poll_interval", w.cfg.PollInterval).Info("starting export job watcher")

	// Pick up anything left over from previous runs before the first tick.
	w.tick(ctx)

	ticker := time.NewTicker(time.Duration(w.cfg.PollInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("export job watcher shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	job, err := w.runner.RunNext(ctx)
	if err != nil {
		w.log.WithError(err).Error("failed to process export job")
		return
	}
	if job == nil {
		return
	}
	w.log.WithFields(logrus.Fields{
		"job_id": job.ID,
		"type":   job.Type,
		"status": job.Status,
	}).Info("export job processed")
}
