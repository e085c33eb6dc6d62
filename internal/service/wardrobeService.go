package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/ai"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/background"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/processor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type wardrobeService struct {
	repo      database.WardrobeRepository
	files     storage.FileStorage
	ai        ai.Client
	remover   background.Remover
	processor processor.ImageProcessor
	publisher TaskPublisher
	now       func() time.Time
}

func NewWardrobeService(
	repo database.WardrobeRepository,
	files storage.FileStorage,
	aiClient ai.Client,
	remover background.Remover,
	proc processor.ImageProcessor,
	publisher TaskPublisher,
) WardrobeService {
	return &wardrobeService{
		repo:      repo,
		files:     files,
		ai:        aiClient,
		remover:   remover,
		processor: proc,
		publisher: publisher,
		now:       time.Now,
	}
}

// AddItem stores a new garment and gets it tagged. With a broker the item is
// returned pending; otherwise tagging runs inline and a failed analysis leaves
// the item with the default tags.
func (s *wardrobeService) AddItem(ctx context.Context, req *AddItemRequest) (*entity.ClothingItem, error) {
	if req == nil || len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image is required", entity.ErrInvalidInput)
	}

	var category entity.Category
	if strings.TrimSpace(req.Category) != "" {
		c, ok := entity.ParseCategory(req.Category)
		if !ok {
			return nil, fmt.Errorf("%w: %q", entity.ErrInvalidCategory, req.Category)
		}
		category = c
	}

	data := req.Image
	if req.RemoveBackground {
		out, removed, err := s.remover.Remove(ctx, data)
		if err != nil {
			logrus.WithError(err).Warn("background removal skipped")
		}
		if removed {
			data = out
		}
	}

	normalized, err := s.processor.Normalize(ctx, data)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	originalKey, itemKey := storage.OriginalKey(id), storage.ItemKey(id)
	if err := saveBlob(s.files, originalKey, req.Image); err != nil {
		return nil, err
	}
	if err := saveBlob(s.files, itemKey, normalized.Data); err != nil {
		s.discardBlobs(originalKey)
		return nil, err
	}

	item := &entity.ClothingItem{
		ID:             id,
		ImageKey:       itemKey,
		Category:       category,
		Tags:           entity.DefaultTags(),
		CreatedAt:      s.now().UTC(),
		AnalysisStatus: entity.AnalysisPending,
	}
	if item.Category == "" {
		item.Category = entity.CategoryFromType(item.Tags.Type)
	}
	if err := s.repo.Put(ctx, item); err != nil {
		s.discardBlobs(originalKey, itemKey)
		return nil, err
	}

	task := entity.AnalysisTask{
		ItemID:   id,
		ImageKey: item.ImageKey,
		MimeType: normalized.MIMEType,
		Category: category,
	}

	entry := logrus.WithFields(logrus.Fields{"item_id": id, "mime": normalized.MIMEType})
	if s.publisher != nil {
		err := s.publisher.Publish(ctx, task)
		if err == nil {
			entry.Info("item queued for analysis")
			return item, nil
		}
		entry.WithError(err).Warn("failed to queue analysis, analysing inline")
	}

	if err := s.AnalyzeItem(ctx, task); err != nil {
		entry.WithError(err).Warn("item analysis failed, using default tags")
		if err := s.FailAnalysis(ctx, task); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

// AnalyzeItem tags a stored item. On error the record is left untouched so
// the caller can retry or fall back.
func (s *wardrobeService) AnalyzeItem(ctx context.Context, task entity.AnalysisTask) error {
	item, err := s.repo.Get(ctx, task.ItemID)
	if err != nil {
		return err
	}

	key := task.ImageKey
	if key == "" {
		key = item.ImageKey
	}
	blob, err := readBlob(s.files, key, entity.ErrItemNotFound)
	if err != nil {
		return err
	}

	mime := task.MimeType
	if mime == "" {
		mime = blob.MIMEType
	}
	analysis, err := s.ai.AnalyzeItem(ctx, ai.Image{MIMEType: mime, Data: blob.Data})
	if err != nil {
		return err
	}

	item.Tags = analysis.Tags
	item.Category = analysis.Category
	if task.Category != "" {
		item.Category = task.Category
	}
	item.AnalysisStatus = entity.AnalysisCompleted

	logrus.WithFields(logrus.Fields{
		"item_id":  item.ID,
		"category": item.Category,
		"type":     item.Tags.Type,
		"guessed":  analysis.CategoryGuessed,
	}).Info("item analysed")
	return s.repo.Put(ctx, item)
}

// FailAnalysis gives up on tagging and applies the default tags.
func (s *wardrobeService) FailAnalysis(ctx context.Context, task entity.AnalysisTask) error {
	item, err := s.repo.Get(ctx, task.ItemID)
	if err != nil {
		return err
	}

	item.Tags = entity.DefaultTags()
	item.Category = task.Category
	if item.Category == "" {
		item.Category = entity.CategoryFromType(item.Tags.Type)
	}
	item.AnalysisStatus = entity.AnalysisFailed
	return s.repo.Put(ctx, item)
}

func (s *wardrobeService) StalePending(ctx context.Context, olderThan time.Duration) ([]entity.AnalysisTask, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-olderThan)
	var tasks []entity.AnalysisTask
	for _, it := range items {
		if it.AnalysisStatus != entity.AnalysisPending || !it.CreatedAt.Before(cutoff) {
			continue
		}
		tasks = append(tasks, entity.AnalysisTask{ItemID: it.ID, ImageKey: it.ImageKey})
	}
	return tasks, nil
}

// ListItems returns the wardrobe newest first, optionally filtered by category.
func (s *wardrobeService) ListItems(ctx context.Context, category string) ([]entity.ClothingItem, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(category) == "" {
		return items, nil
	}

	c, ok := entity.ParseCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidCategory, category)
	}
	filtered := make([]entity.ClothingItem, 0, len(items))
	for _, it := range items {
		if it.Category == c {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

func (s *wardrobeService) GetItem(ctx context.Context, id string) (*entity.ClothingItem, error) {
	return s.repo.Get(ctx, id)
}

func (s *wardrobeService) GetItemImage(ctx context.Context, id string) (*Blob, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return readBlob(s.files, item.ImageKey, entity.ErrItemNotFound)
}

func (s *wardrobeService) GetItemThumbnail(ctx context.Context, id string, size int) (*Blob, error) {
	blob, err := s.GetItemImage(ctx, id)
	if err != nil {
		return nil, err
	}
	thumb, err := s.processor.Thumbnail(blob.Data, size)
	if err != nil {
		return nil, err
	}
	return &Blob{Data: thumb.Data, MIMEType: thumb.MIMEType}, nil
}

func (s *wardrobeService) DeleteItem(ctx context.Context, id string) error {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.discardBlobs(item.ImageKey, storage.OriginalKey(id))
	return nil
}

// discardBlobs removes item blobs that no record points to anymore.
func (s *wardrobeService) discardBlobs(keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.files.Delete(key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to delete item blob")
		}
	}
}

// ReplaceWardrobe swaps the whole wardrobe for items in one step.
func (s *wardrobeService) ReplaceWardrobe(ctx context.Context, items []entity.ClothingItem) error {
	seen := make(map[string]bool, len(items))
	for i := range items {
		it := &items[i]
		if strings.TrimSpace(it.ID) == "" {
			return fmt.Errorf("%w: item %d has no id", entity.ErrInvalidInput, i)
		}
		if seen[it.ID] {
			return fmt.Errorf("%w: duplicate item id %q", entity.ErrInvalidInput, it.ID)
		}
		seen[it.ID] = true

		c, ok := entity.ParseCategory(string(it.Category))
		if !ok {
			return fmt.Errorf("%w: item %q: %q", entity.ErrInvalidCategory, it.ID, it.Category)
		}
		it.Category = c
		if it.ImageKey == "" {
			it.ImageKey = storage.ItemKey(it.ID)
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = s.now().UTC()
		}
		if it.AnalysisStatus == "" {
			it.AnalysisStatus = entity.AnalysisCompleted
		}
	}
	return s.repo.ReplaceAll(ctx, items)
}

// IsPermanent reports analysis errors that a retry cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, entity.ErrItemNotFound) || errors.Is(err, entity.ErrInvalidInput)
}
