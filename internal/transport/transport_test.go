package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/ImGucci/smart-wardrobe-ai/internal/database/file"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/ai"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/background"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/compositor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/processor"
	"github.com/ImGucci/smart-wardrobe-ai/internal/pkg/storage"
	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAI tags every upload by its requested category and always picks the
// first top and bottom.
type stubAI struct{}

func (stubAI) AnalyzeItem(context.Context, ai.Image) (*ai.ItemAnalysis, error) {
	return &ai.ItemAnalysis{Tags: entity.ItemTags{Color: "Black", Type: "Tee", Style: "Casual", Season: "Summer"}, Category: entity.CategoryTop}, nil
}

func (stubAI) RecommendOutfit(_ context.Context, q ai.OutfitQuery) (*ai.Advice, error) {
	return &ai.Advice{TopID: q.Tops[0].ID, BottomID: q.Bottoms[0].ID, Reasoning: "works", StyleName: "Minimal"}, nil
}

func (stubAI) GenerateLook(context.Context, ai.LookRequest) (*ai.Image, error) {
	return nil, entity.ErrAINotEnabled
}

func (stubAI) Provider() string { return "stub" }

func newRouter(t *testing.T, health map[string]HealthCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	files := storage.NewFileStorage(t.TempDir())
	repos := database.NewRepositories(file.NewBackend(files))
	proc := processor.NewImageProcessor()
	composer := service.NewCompositionService(repos.Wardrobe, files, compositor.New(nil, nil))

	const maxUpload = 1 << 20
	return InitRoutes(&Handlers{
		Wardrobe: NewWardrobeHandler(service.NewWardrobeService(repos.Wardrobe, files, stubAI{}, background.NewRemover(false, "", 0), proc, nil), maxUpload),
		Profile:  NewProfileHandler(service.NewProfileService(repos.Profile, files, proc), maxUpload),
		Stylist:  NewStylistHandler(service.NewStylistService(repos, files, stubAI{}, composer, false)),
		Compose:  NewComposeHandler(composer, maxUpload),
		Health:   health,
	}, 5*time.Second)
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

func multipartRequest(t *testing.T, method, url string, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		fw, err := mw.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, url string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func addItem(t *testing.T, r *gin.Engine, category string, c color.NRGBA) entity.ClothingItem {
	t.Helper()
	w := serve(r, multipartRequest(t, http.MethodPost, "/api/v1/items",
		map[string][]byte{"image": solidPNG(t, 40, 30, c)},
		map[string]string{"category": category}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item entity.ClothingItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	return item
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := newRouter(t, map[string]HealthCheck{"store": func() error { return nil }})
		w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","service":"smart-wardrobe","checks":{"store":"ok"}}`, w.Body.String())
	})

	t.Run("degraded", func(t *testing.T) {
		r := newRouter(t, map[string]HealthCheck{"queue": func() error { return errors.New("connection is closed") }})
		w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection is closed")
	})
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(t, nil)
	w := serve(r, httptest.NewRequest(http.MethodOptions, "/api/v1/items", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestItemsAPI(t *testing.T) {
	r := newRouter(t, nil)

	top := addItem(t, r, "", color.NRGBA{R: 200, A: 255})
	assert.Equal(t, entity.CategoryTop, top.Category)
	assert.Equal(t, "Tee", top.Tags.Type)
	bottom := addItem(t, r, "bottom", color.NRGBA{B: 200, A: 255})
	assert.Equal(t, entity.CategoryBottom, bottom.Category)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/items?category=BOTTOM", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var items []entity.ClothingItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, bottom.ID, items[0].ID)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/items/"+top.ID+"/image", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/items/"+top.ID+"/thumbnail?size=16", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/items/"+top.ID+"/thumbnail?size=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+top.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/items/"+top.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"item not found"}`, w.Body.String())
}

func TestItemsAPIErrors(t *testing.T) {
	r := newRouter(t, nil)

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{
			name: "upload without file",
			req:  multipartRequest(t, http.MethodPost, "/api/v1/items", nil, map[string]string{"category": "TOP"}),
			want: http.StatusBadRequest,
		},
		{
			name: "upload with unknown category",
			req: multipartRequest(t, http.MethodPost, "/api/v1/items",
				map[string][]byte{"image": solidPNG(t, 4, 4, color.NRGBA{A: 255})}, map[string]string{"category": "HAT"}),
			want: http.StatusBadRequest,
		},
		{
			name: "upload that is not an image",
			req: multipartRequest(t, http.MethodPost, "/api/v1/items",
				map[string][]byte{"image": []byte("plain text")}, nil),
			want: http.StatusBadRequest,
		},
		{
			name: "upload over the size limit",
			req: multipartRequest(t, http.MethodPost, "/api/v1/items",
				map[string][]byte{"image": make([]byte, 1<<20+1)}, nil),
			want: http.StatusRequestEntityTooLarge,
		},
		{
			name: "filter by unknown category",
			req:  httptest.NewRequest(http.MethodGet, "/api/v1/items?category=hat", nil),
			want: http.StatusBadRequest,
		},
		{
			name: "replace with malformed body",
			req:  httptest.NewRequest(http.MethodPut, "/api/v1/items", bytes.NewReader([]byte("{"))),
			want: http.StatusBadRequest,
		},
		{
			name: "replace with item lacking id",
			req:  jsonRequest(t, http.MethodPut, "/api/v1/items", []entity.ClothingItem{{Category: entity.CategoryTop}}),
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestStylistAPI(t *testing.T) {
	r := newRouter(t, nil)

	w := serve(r, jsonRequest(t, http.MethodPost, "/api/v1/stylist/recommend", gin.H{"occasion": "work"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(r, jsonRequest(t, http.MethodPost, "/api/v1/stylist/recommend", gin.H{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	addItem(t, r, "TOP", color.NRGBA{R: 200, A: 255})
	addItem(t, r, "BOTTOM", color.NRGBA{B: 200, A: 255})

	w = serve(r, jsonRequest(t, http.MethodPost, "/api/v1/stylist/recommend", gin.H{"occasion": "work"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rec entity.OutfitRecommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, entity.VisualFlatLay, rec.VisualKind)
	require.NotEmpty(t, rec.VisualKey)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/visuals/"+rec.VisualKey, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = serve(r, jsonRequest(t, http.MethodPost, "/api/v1/history", rec))
	require.Equal(t, http.StatusCreated, w.Code)
	var saved entity.SavedOutfit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, rec, saved.OutfitRecommendation)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var history []entity.SavedOutfit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)

	w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/v1/history/"+saved.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/v1/history/"+saved.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestProfileAPI(t *testing.T) {
	r := newRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"User","height":"175cm","weight":"70kg","gender":"Male","skin_tone":"Medium"}`, w.Body.String())

	w = serve(r, jsonRequest(t, http.MethodPut, "/api/v1/profile", gin.H{"name": "Kai", "gender": "Non-binary"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Kai"`)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/profile/avatar", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, multipartRequest(t, http.MethodPut, "/api/v1/profile/avatar",
		map[string][]byte{"image": solidPNG(t, 12, 12, color.NRGBA{G: 90, A: 255})}, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/profile/avatar", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComposeAPI(t *testing.T) {
	r := newRouter(t, nil)

	w := serve(r, multipartRequest(t, http.MethodPost, "/api/v1/compose", map[string][]byte{
		"top":    solidPNG(t, 100, 50, color.NRGBA{R: 230, A: 255}),
		"bottom": solidPNG(t, 100, 50, color.NRGBA{B: 230, A: 255}),
	}, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = serve(r, multipartRequest(t, http.MethodPost, "/api/v1/compose", map[string][]byte{
		"top":    []byte("garbage"),
		"bottom": solidPNG(t, 10, 10, color.NRGBA{A: 255}),
	}, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, multipartRequest(t, http.MethodPost, "/api/v1/compose", map[string][]byte{
		"top": solidPNG(t, 10, 10, color.NRGBA{A: 255}),
	}, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	top := addItem(t, r, "TOP", color.NRGBA{R: 200, A: 255})
	bottom := addItem(t, r, "BOTTOM", color.NRGBA{B: 200, A: 255})

	w = serve(r, jsonRequest(t, http.MethodPost, "/api/v1/compose/items", gin.H{"top_id": top.ID, "bottom_id": bottom.ID}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(r, jsonRequest(t, http.MethodPost, "/api/v1/compose/items", gin.H{"top_id": top.ID, "bottom_id": "nope"}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, jsonRequest(t, http.MethodPost, "/api/v1/compose/items", gin.H{"top_id": top.ID}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("wrap: %w", entity.ErrInvalidInput), want: http.StatusBadRequest},
		{err: entity.ErrInvalidCategory, want: http.StatusBadRequest},
		{err: compositor.ErrDecode, want: http.StatusBadRequest},
		{err: entity.ErrItemNotFound, want: http.StatusNotFound},
		{err: entity.ErrOutfitNotFound, want: http.StatusNotFound},
		{err: entity.ErrVisualNotFound, want: http.StatusNotFound},
		{err: entity.ErrNotEnoughItems, want: http.StatusUnprocessableEntity},
		{err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{err: entity.ErrAIResponse, want: http.StatusBadGateway},
		{err: &ai.StatusError{Code: 429}, want: http.StatusServiceUnavailable},
		{err: entity.ErrQueueError, want: http.StatusServiceUnavailable},
		{err: compositor.ErrSurface, want: http.StatusInternalServerError},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}
