package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/processor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
)

type profileService struct {
	repo      database.ProfileRepository
	files     storage.FileStorage
	processor processor.ImageProcessor
}

func NewProfileService(repo database.ProfileRepository, files storage.FileStorage, proc processor.ImageProcessor) ProfileService {
	return &profileService{repo: repo, files: files, processor: proc}
}

func (s *profileService) GetProfile(ctx context.Context) entity.UserProfile {
	return s.repo.Get(ctx)
}

// SaveProfile stores the profile fields. The avatar is managed by SaveAvatar
// and survives a profile update.
func (s *profileService) SaveProfile(ctx context.Context, profile entity.UserProfile) (*entity.UserProfile, error) {
	defaults := entity.DefaultProfile()
	profile.Name = orDefault(profile.Name, defaults.Name)
	profile.Height = orDefault(profile.Height, defaults.Height)
	profile.Weight = orDefault(profile.Weight, defaults.Weight)
	profile.Gender = orDefault(profile.Gender, defaults.Gender)
	profile.SkinTone = orDefault(profile.SkinTone, defaults.SkinTone)
	profile.AvatarKey = s.repo.Get(ctx).AvatarKey

	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *profileService) SaveAvatar(ctx context.Context, image []byte) (*entity.UserProfile, error) {
	normalized, err := s.processor.Normalize(ctx, image)
	if err != nil {
		return nil, err
	}
	if err := saveBlob(s.files, storage.AvatarKey(), normalized.Data); err != nil {
		return nil, err
	}

	profile := s.repo.Get(ctx)
	profile.AvatarKey = storage.AvatarKey()
	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *profileService) GetAvatar(ctx context.Context) (*Blob, error) {
	profile := s.repo.Get(ctx)
	if profile.AvatarKey == "" {
		return nil, fmt.Errorf("%w: no avatar uploaded", entity.ErrVisualNotFound)
	}
	return readBlob(s.files, profile.AvatarKey, entity.ErrVisualNotFound)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
