package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/config"
	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/sirupsen/logrus"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderZenMux     = "zenmux"
)

// Image is an encoded picture handed to or returned by a model.
type Image struct {
	MIMEType string
	Data     []byte
}

// ItemAnalysis is the model's description of one garment.
type ItemAnalysis struct {
	Tags     entity.ItemTags
	Category entity.Category
	// CategoryGuessed is set when the model gave no usable category and it
	// was inferred from the garment type.
	CategoryGuessed bool
}

type OutfitQuery struct {
	Tops     []entity.ClothingItem
	Bottoms  []entity.ClothingItem
	Occasion string
	Profile  entity.UserProfile
}

type Advice struct {
	TopID     string
	BottomID  string
	Reasoning string
	StyleName string
}

type LookRequest struct {
	Top       Image
	Bottom    Image
	Avatar    *Image
	Profile   entity.UserProfile
	StyleName string
}

// Client talks to the external inference API.
type Client interface {
	AnalyzeItem(ctx context.Context, img Image) (*ItemAnalysis, error)
	RecommendOutfit(ctx context.Context, q OutfitQuery) (*Advice, error)
	GenerateLook(ctx context.Context, req LookRequest) (*Image, error)
	Provider() string
}

// request is one provider call: a single user turn with text and images.
type request struct {
	Model     string
	Prompt    string
	Images    []Image
	JSON      bool
	WantImage bool
}

type reply struct {
	Text   string
	Images []Image
}

// generator is implemented by each provider transport.
type generator interface {
	generate(ctx context.Context, req request) (*reply, error)
}

type client struct {
	provider   string
	gen        generator
	textModel  string
	imageModel string
	retry      RetryPolicy
}

var defaultModels = map[string][2]string{
	ProviderGemini:     {"gemini-2.5-flash", "gemini-2.5-flash-image"},
	ProviderOpenRouter: {"google/gemini-2.0-flash-001", "google/gemini-2.5-flash-image-preview"},
	ProviderZenMux:     {"google/gemini-2.0-flash-001", "google/gemini-3-pro-image-preview"},
}

// NewClient builds the client for cfg.Provider. A missing API key does not
// fail construction: every call then returns ErrAIUnavailable so callers can
// fall back the same way they do for any other outage.
func NewClient(ctx context.Context, cfg config.AIConfig) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	models, ok := defaultModels[provider]
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}

	c := &client{
		provider:   provider,
		textModel:  firstNonEmpty(cfg.TextModel, models[0]),
		imageModel: firstNonEmpty(cfg.ImageModel, models[1]),
		retry:      RetryPolicy{Retries: cfg.Retries, BaseDelay: cfg.RetryBaseDelay},
	}

	switch {
	case cfg.APIKey == "":
		logrus.WithField("provider", provider).Warn("ai api key is not configured, ai features disabled")
		c.gen = unavailable{reason: "API key is missing"}
	case provider == ProviderGemini:
		gen, err := newGeminiGenerator(ctx, cfg.APIKey, cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		c.gen = gen
	case provider == ProviderOpenRouter:
		c.gen = newChatGenerator(chatConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   firstNonEmpty(cfg.BaseURL, "https://openrouter.ai/api/v1"),
			KeyPrefix: "sk-or-v1-",
			Referer:   cfg.Referer,
			Title:     cfg.Title,
			Timeout:   cfg.Timeout,
		})
	case provider == ProviderZenMux:
		c.gen = newChatGenerator(chatConfig{
			APIKey:  cfg.APIKey,
			BaseURL: firstNonEmpty(cfg.BaseURL, "https://zenmux.ai/v1"),
			Timeout: cfg.Timeout,
		})
	}

	logrus.WithFields(logrus.Fields{
		"provider":    provider,
		"text_model":  c.textModel,
		"image_model": c.imageModel,
	}).Info("ai client configured")
	return c, nil
}

func (c *client) Provider() string { return c.provider }

func (c *client) AnalyzeItem(ctx context.Context, img Image) (*ItemAnalysis, error) {
	return WithRetry(ctx, c.retry, func(ctx context.Context) (*ItemAnalysis, error) {
		rep, err := c.gen.generate(ctx, request{
			Model:  c.textModel,
			Prompt: analyzePrompt,
			Images: []Image{img},
			JSON:   true,
		})
		if err != nil {
			return nil, err
		}
		return ParseAnalysis(rep.Text)
	})
}

func (c *client) RecommendOutfit(ctx context.Context, q OutfitQuery) (*Advice, error) {
	prompt, err := advicePrompt(q)
	if err != nil {
		return nil, err
	}

	return WithRetry(ctx, c.retry, func(ctx context.Context) (*Advice, error) {
		rep, err := c.gen.generate(ctx, request{
			Model:  c.textModel,
			Prompt: prompt,
			JSON:   true,
		})
		if err != nil {
			return nil, err
		}
		return ParseAdvice(rep.Text)
	})
}

func (c *client) GenerateLook(ctx context.Context, req LookRequest) (*Image, error) {
	images := make([]Image, 0, 3)
	if req.Avatar != nil {
		images = append(images, *req.Avatar)
	}
	images = append(images, req.Top, req.Bottom)

	return WithRetry(ctx, c.retry, func(ctx context.Context) (*Image, error) {
		start := time.Now()
		rep, err := c.gen.generate(ctx, request{
			Model:     c.imageModel,
			Prompt:    lookPrompt(req.Profile, req.StyleName),
			Images:    images,
			WantImage: true,
		})
		if err != nil {
			return nil, err
		}

		logrus.WithFields(logrus.Fields{
			"provider": c.provider,
			"images":   len(rep.Images),
			"duration": time.Since(start).String(),
		}).Debug("look generation replied")

		if len(rep.Images) > 0 {
			img := rep.Images[0]
			return &img, nil
		}
		return ExtractImage(rep.Text)
	})
}

type unavailable struct {
	reason string
}

func (u unavailable) generate(context.Context, request) (*reply, error) {
	return nil, fmt.Errorf("%w: %s", entity.ErrAIUnavailable, u.reason)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
