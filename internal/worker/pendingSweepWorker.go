package worker

import (
	"context"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/sirupsen/logrus"
)

// PendingSweepWorker gives up on items whose analysis never finished, for
// example because the task was lost with a broker.
type PendingSweepWorker struct {
	wardrobe   service.WardrobeService
	staleAfter time.Duration
	interval   time.Duration
}

func NewPendingSweepWorker(wardrobe service.WardrobeService, staleAfter, interval time.Duration) *PendingSweepWorker {
	return &PendingSweepWorker{
		wardrobe:   wardrobe,
		staleAfter: staleAfter,
		interval:   interval,
	}
}

func (w *PendingSweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("pending sweep worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("pending sweep worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep applies the default tags to every stale pending item and reports how
// many were updated.
func (w *PendingSweepWorker) Sweep(ctx context.Context) int {
	tasks, err := w.wardrobe.StalePending(ctx, w.staleAfter)
	if err != nil {
		logrus.WithError(err).Error("failed to list pending items")
		return 0
	}
	if len(tasks) == 0 {
		return 0
	}

	swept, failed := 0, 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			logrus.Info("sweep interrupted by context cancellation")
			break
		}
		if err := w.wardrobe.FailAnalysis(ctx, task); err != nil {
			logrus.WithError(err).WithField("item_id", task.ItemID).Error("failed to sweep item")
			failed++
			continue
		}
		swept++
	}

	logrus.WithFields(logrus.Fields{"swept": swept, "failed": failed}).Info("stale pending items swept")
	return swept
}
