package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/sirupsen/logrus"
)

// chatGenerator speaks the OpenAI compatible chat completions protocol used
// by OpenRouter and ZenMux.
type chatGenerator struct {
	apiKey     string
	baseURL    string
	keyPrefix  string
	referer    string
	title      string
	httpClient *http.Client
}

type chatConfig struct {
	APIKey    string
	BaseURL   string
	KeyPrefix string
	Referer   string
	Title     string
	Timeout   time.Duration
}

func newChatGenerator(cfg chatConfig) *chatGenerator {
	return &chatGenerator{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyPrefix:  cfg.KeyPrefix,
		referer:    cfg.Referer,
		title:      cfg.Title,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Images  []contentPart   `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *chatGenerator) generate(ctx context.Context, req request) (*reply, error) {
	if g.keyPrefix != "" && !strings.HasPrefix(g.apiKey, g.keyPrefix) {
		return nil, fmt.Errorf("%w: api key must start with %q", entity.ErrAIUnavailable, g.keyPrefix)
	}

	parts := []contentPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: DataURL(img)}})
	}
	body := chatRequest{
		Model:    req.Model,
		Messages: []chatMessage{{Role: "user", Content: parts}},
	}
	if req.WantImage {
		body.Modalities = []string{"image", "text"}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.referer != "" {
		httpReq.Header.Set("HTTP-Referer", g.referer)
	}
	if g.title != "" {
		httpReq.Header.Set("X-Title", g.title)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", entity.ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", entity.ErrAIUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"model":    req.Model,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("chat completion finished")

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, data)
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", entity.ErrAIResponse, err)
	}
	if cr.Error != nil {
		return nil, &StatusError{Code: http.StatusBadGateway, Message: cr.Error.Message}
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion returned", entity.ErrAIResponse)
	}

	msg := cr.Choices[0].Message
	out := &reply{}
	out.Text, out.Images = splitContent(msg.Content)
	for _, p := range msg.Images {
		if p.ImageURL == nil {
			continue
		}
		if img, ok := imageFromString(p.ImageURL.URL); ok {
			out.Images = append(out.Images, *img)
		}
	}
	return out, nil
}

// splitContent handles content given either as a plain string or as an
// array of typed parts.
func splitContent(raw json.RawMessage) (string, []Image) {
	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return string(raw), nil
	}

	var sb strings.Builder
	var images []Image
	for _, p := range parts {
		switch {
		case p.Type == "text":
			sb.WriteString(p.Text)
		case p.ImageURL != nil:
			if img, ok := imageFromString(p.ImageURL.URL); ok {
				images = append(images, *img)
			}
		}
	}
	return sb.String(), images
}

func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var errBody struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errBody) == nil && errBody.Error.Message != "" {
		msg = errBody.Error.Message
	}
	if code == http.StatusUnauthorized {
		msg = "invalid API key: " + msg
	}
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return &StatusError{Code: code, Message: msg}
}
