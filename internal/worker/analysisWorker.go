package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/sirupsen/logrus"
)

// AnalysisWorker tags items taken off the analysis queue.
type AnalysisWorker struct {
	wardrobe    service.WardrobeService
	publisher   service.TaskPublisher
	maxAttempts int
}

func NewAnalysisWorker(wardrobe service.WardrobeService, publisher service.TaskPublisher, maxAttempts int) *AnalysisWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AnalysisWorker{
		wardrobe:    wardrobe,
		publisher:   publisher,
		maxAttempts: maxAttempts,
	}
}

// HandleMessage decodes a queue payload and runs Handle. Malformed payloads
// are dropped.
func (w *AnalysisWorker) HandleMessage(ctx context.Context, body []byte) error {
	var task entity.AnalysisTask
	if err := json.Unmarshal(body, &task); err != nil || task.ItemID == "" {
		logrus.WithField("payload", string(body)).Error("dropping malformed analysis task")
		return nil
	}
	return w.Handle(ctx, task)
}

// Handle analyses one item. A failed attempt is republished until
// maxAttempts is reached, then the item gets the default tags. Only a
// cancelled context is returned as an error so the broker redelivers.
func (w *AnalysisWorker) Handle(ctx context.Context, task entity.AnalysisTask) error {
	entry := logrus.WithFields(logrus.Fields{
		"item_id": task.ItemID,
		"attempt": task.Attempt + 1,
	})

	err := w.wardrobe.AnalyzeItem(ctx, task)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, entity.ErrItemNotFound) {
		entry.Info("item is gone, dropping analysis task")
		return nil
	}

	next := task
	next.Attempt++
	if !service.IsPermanent(err) && next.Attempt < w.maxAttempts && w.publisher != nil {
		perr := w.publisher.Publish(ctx, next)
		if perr == nil {
			entry.WithError(err).Warn("analysis failed, retry scheduled")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		entry.WithError(perr).Error("failed to schedule retry")
	}

	entry.WithError(err).Error("analysis failed, applying default tags")
	if ferr := w.wardrobe.FailAnalysis(ctx, task); ferr != nil && !errors.Is(ferr, entity.ErrItemNotFound) {
		return ferr
	}
	return nil
}
