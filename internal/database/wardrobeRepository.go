package database

import (
	"context"
	"sort"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
)

type wardrobeRepository struct {
	records Collection
}

func NewWardrobeRepository(c Collection) WardrobeRepository {
	return &wardrobeRepository{records: c}
}

func (r *wardrobeRepository) ReplaceAll(ctx context.Context, items []entity.ClothingItem) error {
	records := make(map[string][]byte, len(items))
	for i := range items {
		data, err := encodeRecord(&items[i])
		if err != nil {
			return err
		}
		records[items[i].ID] = data
	}
	if err := r.records.ReplaceAll(ctx, records); err != nil {
		return storeError("replace wardrobe", err)
	}
	return nil
}

// GetAll returns items newest first.
func (r *wardrobeRepository) GetAll(ctx context.Context) ([]entity.ClothingItem, error) {
	records, err := r.records.GetAll(ctx)
	if err != nil {
		return nil, storeError("load wardrobe", err)
	}

	items := make([]entity.ClothingItem, 0, len(records))
	for id, data := range records {
		var item entity.ClothingItem
		if err := decodeRecord(id, data, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *wardrobeRepository) Get(ctx context.Context, id string) (*entity.ClothingItem, error) {
	data, ok, err := r.records.Get(ctx, id)
	if err != nil {
		return nil, storeError("get item", err)
	}
	if !ok {
		return nil, entity.ErrItemNotFound
	}

	var item entity.ClothingItem
	if err := decodeRecord(id, data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *wardrobeRepository) Put(ctx context.Context, item *entity.ClothingItem) error {
	data, err := encodeRecord(item)
	if err != nil {
		return err
	}
	if err := r.records.Put(ctx, item.ID, data); err != nil {
		return storeError("put item", err)
	}
	return nil
}

func (r *wardrobeRepository) Delete(ctx context.Context, id string) error {
	ok, err := r.records.Delete(ctx, id)
	if err != nil {
		return storeError("delete item", err)
	}
	if !ok {
		return entity.ErrItemNotFound
	}
	return nil
}
