package database

import (
	"context"
	"sort"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
)

type historyRepository struct {
	records Collection
}

func NewHistoryRepository(c Collection) HistoryRepository {
	return &historyRepository{records: c}
}

func (r *historyRepository) ReplaceAll(ctx context.Context, outfits []entity.SavedOutfit) error {
	records := make(map[string][]byte, len(outfits))
	for i := range outfits {
		data, err := encodeRecord(&outfits[i])
		if err != nil {
			return err
		}
		records[outfits[i].ID] = data
	}
	if err := r.records.ReplaceAll(ctx, records); err != nil {
		return storeError("replace history", err)
	}
	return nil
}

func (r *historyRepository) GetAll(ctx context.Context) ([]entity.SavedOutfit, error) {
	records, err := r.records.GetAll(ctx)
	if err != nil {
		return nil, storeError("load history", err)
	}

	outfits := make([]entity.SavedOutfit, 0, len(records))
	for id, data := range records {
		var o entity.SavedOutfit
		if err := decodeRecord(id, data, &o); err != nil {
			return nil, err
		}
		outfits = append(outfits, o)
	}

	sort.Slice(outfits, func(i, j int) bool {
		if outfits[i].Timestamp.Equal(outfits[j].Timestamp) {
			return outfits[i].ID < outfits[j].ID
		}
		return outfits[i].Timestamp.After(outfits[j].Timestamp)
	})
	return outfits, nil
}

func (r *historyRepository) Get(ctx context.Context, id string) (*entity.SavedOutfit, error) {
	data, ok, err := r.records.Get(ctx, id)
	if err != nil {
		return nil, storeError("get outfit", err)
	}
	if !ok {
		return nil, entity.ErrOutfitNotFound
	}

	var o entity.SavedOutfit
	if err := decodeRecord(id, data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *historyRepository) Put(ctx context.Context, outfit *entity.SavedOutfit) error {
	data, err := encodeRecord(outfit)
	if err != nil {
		return err
	}
	if err := r.records.Put(ctx, outfit.ID, data); err != nil {
		return storeError("put outfit", err)
	}
	return nil
}

func (r *historyRepository) Delete(ctx context.Context, id string) error {
	ok, err := r.records.Delete(ctx, id)
	if err != nil {
		return storeError("delete outfit", err)
	}
	if !ok {
		return entity.ErrOutfitNotFound
	}
	return nil
}
