package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/database/file"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/ai"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/compositor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/processor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	mu sync.Mutex

	analysis     *ai.ItemAnalysis
	analyzeErr   error
	analyzeCalls int

	advice      *ai.Advice
	adviceErr   error
	lastQuery   ai.OutfitQuery
	adviceCalls int

	look      *ai.Image
	lookErr   error
	lookCalls int
	lastLook  ai.LookRequest
}

func (f *fakeAI) AnalyzeItem(_ context.Context, _ ai.Image) (*ai.ItemAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeAI) RecommendOutfit(_ context.Context, q ai.OutfitQuery) (*ai.Advice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adviceCalls++
	f.lastQuery = q
	if f.adviceErr != nil {
		return nil, f.adviceErr
	}
	return f.advice, nil
}

func (f *fakeAI) GenerateLook(_ context.Context, req ai.LookRequest) (*ai.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookCalls++
	f.lastLook = req
	if f.lookErr != nil {
		return nil, f.lookErr
	}
	return f.look, nil
}

func (f *fakeAI) Provider() string { return "fake" }

type fakePublisher struct {
	tasks []entity.AnalysisTask
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, task entity.AnalysisTask) error {
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

type fakeRemover struct {
	out   []byte
	calls int
}

func (r *fakeRemover) Remove(_ context.Context, img []byte) ([]byte, bool, error) {
	r.calls++
	if r.out == nil {
		return img, false, errors.New("remover offline")
	}
	return r.out, true, nil
}

type harness struct {
	repos   *database.Repositories
	files   storage.FileStorage
	ai      *fakeAI
	remover *fakeRemover
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	files := storage.NewFileStorage(t.TempDir())
	return &harness{
		repos:   database.NewRepositories(file.NewBackend(files)),
		files:   files,
		ai:      &fakeAI{analysis: &ai.ItemAnalysis{Tags: entity.ItemTags{Color: "Navy", Type: "Hoodie", Style: "Casual", Season: "Winter"}, Category: entity.CategoryTop}},
		remover: &fakeRemover{},
	}
}

func (h *harness) wardrobe(publisher TaskPublisher) *wardrobeService {
	return NewWardrobeService(h.repos.Wardrobe, h.files, h.ai, h.remover, processor.NewImageProcessor(), publisher).(*wardrobeService)
}

func (h *harness) stylist(generateLook bool) *stylistService {
	composer := NewCompositionService(h.repos.Wardrobe, h.files, compositor.New(nil, nil))
	return NewStylistService(h.repos, h.files, h.ai, composer, generateLook).(*stylistService)
}

// putItem stores an item record together with a solid-colour photo.
func (h *harness) putItem(t *testing.T, id string, category entity.Category, c color.NRGBA, createdAt time.Time) {
	t.Helper()
	require.NoError(t, h.files.Save(storage.ItemKey(id), bytes.NewReader(solidPNG(t, 40, 30, c))))
	require.NoError(t, h.repos.Wardrobe.Put(context.Background(), &entity.ClothingItem{
		ID:             id,
		ImageKey:       storage.ItemKey(id),
		Category:       category,
		Tags:           entity.ItemTags{Color: "Red", Type: "Thing"},
		CreatedAt:      createdAt,
		AnalysisStatus: entity.AnalysisCompleted,
	}))
}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	red  = color.NRGBA{R: 220, G: 20, B: 20, A: 255}
	blue = color.NRGBA{R: 20, G: 40, B: 200, A: 255}
)
