package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/ai"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type stylistService struct {
	repos        *database.Repositories
	files        storage.FileStorage
	ai           ai.Client
	composer     CompositionService
	generateLook bool
	now          func() time.Time
}

func NewStylistService(
	repos *database.Repositories,
	files storage.FileStorage,
	aiClient ai.Client,
	composer CompositionService,
	generateLook bool,
) StylistService {
	return &stylistService{
		repos:        repos,
		files:        files,
		ai:           aiClient,
		composer:     composer,
		generateLook: generateLook,
		now:          time.Now,
	}
}

// Recommend asks the model for an outfit and renders it. Problems with the
// picture are reported on the recommendation, only failing advice is an error.
func (s *stylistService) Recommend(ctx context.Context, occasion string) (*entity.OutfitRecommendation, error) {
	occasion = strings.TrimSpace(occasion)
	if occasion == "" {
		return nil, fmt.Errorf("%w: occasion is required", entity.ErrInvalidInput)
	}

	items, err := s.repos.Wardrobe.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	tops, bottoms := entity.SplitByCategory(items)
	if len(tops) == 0 || len(bottoms) == 0 {
		return nil, entity.ErrNotEnoughItems
	}

	profile := s.repos.Profile.Get(ctx)
	advice, err := s.ai.RecommendOutfit(ctx, ai.OutfitQuery{
		Tops:     tops,
		Bottoms:  bottoms,
		Occasion: occasion,
		Profile:  profile,
	})
	if err != nil {
		return nil, err
	}

	rec := &entity.OutfitRecommendation{
		TopID:     advice.TopID,
		BottomID:  advice.BottomID,
		Reasoning: advice.Reasoning,
		StyleName: advice.StyleName,
	}
	entry := logrus.WithFields(logrus.Fields{
		"occasion":  occasion,
		"top_id":    rec.TopID,
		"bottom_id": rec.BottomID,
		"style":     rec.StyleName,
	})

	top := findItem(tops, rec.TopID)
	bottom := findItem(bottoms, rec.BottomID)
	if top == nil || bottom == nil {
		entry.Warn("recommended items are not in the wardrobe")
		rec.VisualError = entity.MsgItemsNotFound
		return rec, nil
	}

	visual, err := s.GenerateVisual(ctx, top, bottom, profile, rec.StyleName)
	if err != nil {
		entry.WithError(err).Error("visual generation failed")
		rec.VisualError = err.Error()
		return rec, nil
	}
	rec.VisualKey = visual.ID
	rec.VisualKind = visual.Kind

	entry.WithField("visual_kind", visual.Kind).Info("outfit recommended")
	return rec, nil
}

// GenerateVisual renders the outfit. When look generation is enabled the
// model draws a person wearing it; any failure there falls back to the local
// flat-lay.
func (s *stylistService) GenerateVisual(ctx context.Context, top, bottom *entity.ClothingItem, profile entity.UserProfile, styleName string) (*Visual, error) {
	topImg, err := readBlob(s.files, top.ImageKey, entity.ErrItemNotFound)
	if err != nil {
		return nil, err
	}
	bottomImg, err := readBlob(s.files, bottom.ImageKey, entity.ErrItemNotFound)
	if err != nil {
		return nil, err
	}

	if s.generateLook {
		look, err := s.ai.GenerateLook(ctx, ai.LookRequest{
			Top:       ai.Image{MIMEType: topImg.MIMEType, Data: topImg.Data},
			Bottom:    ai.Image{MIMEType: bottomImg.MIMEType, Data: bottomImg.Data},
			Avatar:    s.avatar(profile),
			Profile:   profile,
			StyleName: styleName,
		})
		if err == nil {
			return s.storeVisual(look.Data, entity.VisualAI)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logrus.WithError(err).Warn("look generation failed, falling back to flat-lay")
	}

	out, err := s.composer.ComposeBytes(ctx, topImg.Data, bottomImg.Data)
	if err != nil {
		return nil, err
	}
	return s.storeVisual(out, entity.VisualFlatLay)
}

func (s *stylistService) avatar(profile entity.UserProfile) *ai.Image {
	if profile.AvatarKey == "" {
		return nil
	}
	blob, err := readBlob(s.files, profile.AvatarKey, entity.ErrVisualNotFound)
	if err != nil {
		logrus.WithError(err).Warn("avatar unavailable, generating without it")
		return nil
	}
	return &ai.Image{MIMEType: blob.MIMEType, Data: blob.Data}
}

func (s *stylistService) storeVisual(data []byte, kind string) (*Visual, error) {
	id := uuid.New().String()
	if err := saveBlob(s.files, storage.VisualKey(id), data); err != nil {
		return nil, err
	}
	return &Visual{ID: id, Kind: kind}, nil
}

func (s *stylistService) SaveOutfit(ctx context.Context, rec entity.OutfitRecommendation) (*entity.SavedOutfit, error) {
	if rec.TopID == "" || rec.BottomID == "" {
		return nil, fmt.Errorf("%w: top_id and bottom_id are required", entity.ErrInvalidInput)
	}

	outfit := &entity.SavedOutfit{
		OutfitRecommendation: rec,
		ID:                   uuid.New().String(),
		Timestamp:            s.now().UTC(),
	}
	if err := s.repos.History.Put(ctx, outfit); err != nil {
		return nil, err
	}
	return outfit, nil
}

func (s *stylistService) ListHistory(ctx context.Context) ([]entity.SavedOutfit, error) {
	return s.repos.History.GetAll(ctx)
}

func (s *stylistService) DeleteOutfit(ctx context.Context, id string) error {
	return s.repos.History.Delete(ctx, id)
}

func (s *stylistService) GetVisual(ctx context.Context, id string) (*Blob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrVisualNotFound
	}
	return readBlob(s.files, storage.VisualKey(id), entity.ErrVisualNotFound)
}

func findItem(items []entity.ClothingItem, id string) *entity.ClothingItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}
