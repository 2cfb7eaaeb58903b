package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/icongen/internal/service"

	"github.com/sirupsen/logrus"
)

type SessionCleanupWorker struct {
	iconService service.IconService
	interval    time.Duration
	maxIdle     time.Duration
}

func NewSessionCleanupWorker(iconService service.IconService, interval, maxIdle time.Duration) *SessionCleanupWorker {
	return &SessionCleanupWorker{
		iconService: iconService,
		interval:    interval,
		maxIdle:     maxIdle,
	}
}

// Start blocks until ctx is cancelled.
func (w *SessionCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"interval": w.interval.String(),
		"max_idle": w.maxIdle.String(),
	}).Info("Session cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Session cleanup worker stopped")
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *SessionCleanupWorker) cleanup(ctx context.Context) {
	closed := w.iconService.CleanupIdle(ctx, w.maxIdle)
	if closed == 0 {
		logrus.Debug("No idle sessions found for cleanup")
		return
	}
	logrus.Infof("Idle sessions cleanup completed: %d closed", closed)
}
