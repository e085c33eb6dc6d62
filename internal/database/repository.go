package database

import (
	"context"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
)

// Collection names
const (
	CollectionWardrobe = "wardrobe"
	CollectionProfile  = "profile"
	CollectionHistory  = "history"
)

// Collection is a named set of JSON records keyed by id. Every backend
// (redis, postgres, file) implements it once and the typed repositories
// below are built on top.
type Collection interface {
	// ReplaceAll clears the collection and writes records in one atomic step.
	ReplaceAll(ctx context.Context, records map[string][]byte) error
	GetAll(ctx context.Context) (map[string][]byte, error)
	// Get reports ok=false for a missing id.
	Get(ctx context.Context, id string) (data []byte, ok bool, err error)
	Put(ctx context.Context, id string, data []byte) error
	// Delete reports ok=false when nothing was removed.
	Delete(ctx context.Context, id string) (ok bool, err error)
}

// Backend opens the collections of one storage driver.
type Backend interface {
	Collection(name string) Collection
	Close() error
}

type WardrobeRepository interface {
	ReplaceAll(ctx context.Context, items []entity.ClothingItem) error
	GetAll(ctx context.Context) ([]entity.ClothingItem, error)
	Get(ctx context.Context, id string) (*entity.ClothingItem, error)
	Put(ctx context.Context, item *entity.ClothingItem) error
	Delete(ctx context.Context, id string) error
}

type ProfileRepository interface {
	Save(ctx context.Context, profile entity.UserProfile) error
	// Get never fails: a missing or unreadable record yields the default profile.
	Get(ctx context.Context) entity.UserProfile
}

type HistoryRepository interface {
	ReplaceAll(ctx context.Context, outfits []entity.SavedOutfit) error
	// GetAll returns outfits newest first.
	GetAll(ctx context.Context) ([]entity.SavedOutfit, error)
	Get(ctx context.Context, id string) (*entity.SavedOutfit, error)
	Put(ctx context.Context, outfit *entity.SavedOutfit) error
	Delete(ctx context.Context, id string) error
}

type Repositories struct {
	Wardrobe WardrobeRepository
	Profile  ProfileRepository
	History  HistoryRepository
}

func NewRepositories(b Backend) *Repositories {
	return &Repositories{
		Wardrobe: NewWardrobeRepository(b.Collection(CollectionWardrobe)),
		Profile:  NewProfileRepository(b.Collection(CollectionProfile)),
		History:  NewHistoryRepository(b.Collection(CollectionHistory)),
	}
}
