package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewBackend(client, "wardrobe-test")
	t.Cleanup(func() { b.Close() })
	return b, mr
}

func TestWardrobeRepository(t *testing.T) {
	ctx := context.Background()
	b, mr := newBackend(t)
	repos := database.NewRepositories(b)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Wardrobe.Put(ctx, &entity.ClothingItem{ID: "old", CreatedAt: base}))
	require.NoError(t, repos.Wardrobe.ReplaceAll(ctx, []entity.ClothingItem{
		{ID: "a", Category: entity.CategoryTop, CreatedAt: base},
		{ID: "b", Category: entity.CategoryBottom, CreatedAt: base.Add(time.Hour)},
	}))

	got, err := repos.Wardrobe.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID, "newest first")

	_, err = repos.Wardrobe.Get(ctx, "old")
	assert.ErrorIs(t, err, entity.ErrItemNotFound)

	require.NoError(t, repos.Wardrobe.Delete(ctx, "a"))
	assert.ErrorIs(t, repos.Wardrobe.Delete(ctx, "a"), entity.ErrItemNotFound)

	assert.True(t, mr.Exists("wardrobe-test:wardrobe"))
	require.NoError(t, repos.Wardrobe.ReplaceAll(ctx, nil))
	assert.False(t, mr.Exists("wardrobe-test:wardrobe"))
}

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	b, mr := newBackend(t)
	repos := database.NewRepositories(b)

	assert.Equal(t, entity.DefaultProfile(), repos.Profile.Get(ctx))

	p := entity.UserProfile{Name: "Ana", Height: "165cm", Weight: "55kg", Gender: "Female", SkinTone: "Light"}
	require.NoError(t, repos.Profile.Save(ctx, p))
	assert.Equal(t, p, repos.Profile.Get(ctx))

	mr.HSet("wardrobe-test:profile", "main", "{not json")
	assert.Equal(t, entity.DefaultProfile(), repos.Profile.Get(ctx))
}

func TestCollectionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t)
	repos := database.NewRepositories(b)

	require.NoError(t, repos.Wardrobe.Put(ctx, &entity.ClothingItem{ID: "x"}))
	require.NoError(t, repos.History.ReplaceAll(ctx, nil))

	got, err := repos.Wardrobe.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// TestReplaceAllIsAtomic checks that readers never observe a half-replaced
// collection.
func TestReplaceAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t)
	c := b.Collection(database.CollectionWardrobe)

	sets := [2]map[string][]byte{make(map[string][]byte), make(map[string][]byte)}
	for i := 0; i < 50; i++ {
		sets[0][fmt.Sprintf("a%d", i)] = []byte(`{}`)
		sets[1][fmt.Sprintf("b%d", i)] = []byte(`{}`)
	}
	require.NoError(t, c.ReplaceAll(ctx, sets[0]))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 40; i++ {
			if err := c.ReplaceAll(ctx, sets[(i+1)%2]); err != nil {
				t.Errorf("replace: %v", err)
				break
			}
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		got, err := c.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 50)
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t)
	c := b.Collection(database.CollectionHistory)

	_, ok, err := c.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Delete(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "one", []byte(`{"id":"one"}`)))
	data, ok, err := c.Get(ctx, "one")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"one"}`, string(data))
}
