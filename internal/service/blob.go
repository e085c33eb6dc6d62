package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
	"github.com/gabriel-vasile/mimetype"
)

func readBlob(files storage.FileStorage, key string, notFound error) (*Blob, error) {
	data, err := files.ReadAll(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return &Blob{Data: data, MIMEType: mimetype.Detect(data).String()}, nil
}

func saveBlob(files storage.FileStorage, key string, data []byte) error {
	if err := files.Save(key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
