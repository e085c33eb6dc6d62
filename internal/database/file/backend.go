package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
)

// Backend keeps each collection as a single JSON document in blob storage.
// Rewriting the whole document on every write keeps ReplaceAll atomic.
type Backend struct {
	storage storage.FileStorage

	mu          sync.Mutex
	collections map[string]*collection
}

func NewBackend(files storage.FileStorage) *Backend {
	return &Backend{storage: files, collections: make(map[string]*collection)}
}

func (b *Backend) Collection(name string) database.Collection {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[name]
	if !ok {
		c = &collection{storage: b.storage, path: filepath.Join("records", name+".json")}
		b.collections[name] = c
	}
	return c
}

func (b *Backend) Close() error { return nil }

type collection struct {
	storage storage.FileStorage
	path    string
	mu      sync.RWMutex
}

func (c *collection) load() (map[string]json.RawMessage, error) {
	data, err := c.storage.ReadAll(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}

	records := map[string]json.RawMessage{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *collection) store(records map[string]json.RawMessage) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.storage.Save(c.path, bytes.NewReader(data))
}

func (c *collection) ReplaceAll(ctx context.Context, records map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]json.RawMessage, len(records))
	for id, data := range records {
		next[id] = json.RawMessage(data)
	}
	return c.store(next)
}

func (c *collection) GetAll(ctx context.Context) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	records, err := c.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(records))
	for id, raw := range records {
		out[id] = []byte(raw)
	}
	return out, nil
}

func (c *collection) Get(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	records, err := c.load()
	if err != nil {
		return nil, false, err
	}
	raw, ok := records[id]
	return []byte(raw), ok, nil
}

func (c *collection) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return err
	}
	records[id] = json.RawMessage(data)
	return c.store(records)
}

func (c *collection) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return false, err
	}
	if _, ok := records[id]; !ok {
		return false, nil
	}
	delete(records, id)
	return true, c.store(records)
}
