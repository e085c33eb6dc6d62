package database

import (
	"context"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/sirupsen/logrus"
)

type profileRepository struct {
	records Collection
}

func NewProfileRepository(c Collection) ProfileRepository {
	return &profileRepository{records: c}
}

func (r *profileRepository) Save(ctx context.Context, profile entity.UserProfile) error {
	data, err := encodeRecord(&profile)
	if err != nil {
		return err
	}
	if err := r.records.Put(ctx, entity.ProfileID, data); err != nil {
		return storeError("save profile", err)
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context) entity.UserProfile {
	data, ok, err := r.records.Get(ctx, entity.ProfileID)
	if err != nil {
		logrus.WithError(err).Warn("profile unreadable, using default")
		return entity.DefaultProfile()
	}
	if !ok {
		return entity.DefaultProfile()
	}

	var profile entity.UserProfile
	if err := decodeRecord(entity.ProfileID, data, &profile); err != nil {
		logrus.WithError(err).Warn("profile corrupt, using default")
		return entity.DefaultProfile()
	}
	return profile
}
