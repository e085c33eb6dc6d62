package service

import (
	"context"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
)

type WardrobeService interface {
	AddItem(ctx context.Context, req *AddItemRequest) (*entity.ClothingItem, error)
	ListItems(ctx context.Context, category string) ([]entity.ClothingItem, error)
	GetItem(ctx context.Context, id string) (*entity.ClothingItem, error)
	GetItemImage(ctx context.Context, id string) (*Blob, error)
	GetItemThumbnail(ctx context.Context, id string, size int) (*Blob, error)
	DeleteItem(ctx context.Context, id string) error
	ReplaceWardrobe(ctx context.Context, items []entity.ClothingItem) error

	// Analysis lifecycle, shared by the synchronous path and the queue worker
	AnalyzeItem(ctx context.Context, task entity.AnalysisTask) error
	FailAnalysis(ctx context.Context, task entity.AnalysisTask) error
	StalePending(ctx context.Context, olderThan time.Duration) ([]entity.AnalysisTask, error)
}

type ProfileService interface {
	GetProfile(ctx context.Context) entity.UserProfile
	SaveProfile(ctx context.Context, profile entity.UserProfile) (*entity.UserProfile, error)
	SaveAvatar(ctx context.Context, image []byte) (*entity.UserProfile, error)
	GetAvatar(ctx context.Context) (*Blob, error)
}

type StylistService interface {
	Recommend(ctx context.Context, occasion string) (*entity.OutfitRecommendation, error)
	GenerateVisual(ctx context.Context, top, bottom *entity.ClothingItem, profile entity.UserProfile, styleName string) (*Visual, error)
	SaveOutfit(ctx context.Context, rec entity.OutfitRecommendation) (*entity.SavedOutfit, error)
	ListHistory(ctx context.Context) ([]entity.SavedOutfit, error)
	DeleteOutfit(ctx context.Context, id string) error
	GetVisual(ctx context.Context, id string) (*Blob, error)
}

type CompositionService interface {
	ComposeItems(ctx context.Context, topID, bottomID string) ([]byte, error)
	ComposeBytes(ctx context.Context, top, bottom []byte) ([]byte, error)
}

// TaskPublisher hands analysis work to a broker. A nil publisher means
// items are analysed inline.
type TaskPublisher interface {
	Publish(ctx context.Context, task entity.AnalysisTask) error
}

type AddItemRequest struct {
	Image []byte
	// Category is optional; empty lets the model decide.
	Category         string
	RemoveBackground bool
}

// Blob is stored image content with its detected type.
type Blob struct {
	Data     []byte
	MIMEType string
}

type Visual struct {
	ID   string
	Kind string
}
