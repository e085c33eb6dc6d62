package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/compositor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
	"golang.org/x/sync/errgroup"
)

type compositionService struct {
	repo       database.WardrobeRepository
	files      storage.FileStorage
	compositor *compositor.Compositor
}

func NewCompositionService(repo database.WardrobeRepository, files storage.FileStorage, c *compositor.Compositor) CompositionService {
	if c == nil {
		c = compositor.New(nil, nil)
	}
	return &compositionService{repo: repo, files: files, compositor: c}
}

// ComposeItems renders the flat-lay of two stored wardrobe items.
func (s *compositionService) ComposeItems(ctx context.Context, topID, bottomID string) ([]byte, error) {
	if topID == "" || bottomID == "" {
		return nil, fmt.Errorf("%w: top and bottom ids are required", entity.ErrInvalidInput)
	}

	var top, bottom *Blob
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		top, err = s.itemImage(gctx, topID)
		return err
	})
	g.Go(func() (err error) {
		bottom, err = s.itemImage(gctx, bottomID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.ComposeBytes(ctx, top.Data, bottom.Data)
}

func (s *compositionService) ComposeBytes(ctx context.Context, top, bottom []byte) ([]byte, error) {
	out, err := s.compositor.ComposeFlatLay(ctx, top, bottom)
	if err != nil {
		if errors.Is(err, compositor.ErrDecode) {
			return nil, fmt.Errorf("%w: %w", entity.ErrInvalidInput, err)
		}
		return nil, err
	}
	return out, nil
}

func (s *compositionService) itemImage(ctx context.Context, id string) (*Blob, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return readBlob(s.files, item.ImageKey, entity.ErrItemNotFound)
}
