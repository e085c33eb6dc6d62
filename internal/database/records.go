package database

import (
	"encoding/json"
	"fmt"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
)

func encodeRecord(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode record: %v", entity.ErrDatabaseError, err)
	}
	return data, nil
}

func decodeRecord(id string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode record %s: %v", entity.ErrDatabaseError, id, err)
	}
	return nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", entity.ErrDatabaseError, op, err)
}
