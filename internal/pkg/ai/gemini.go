package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"google.golang.org/genai"
)

type geminiGenerator struct {
	client *genai.Client
}

func newGeminiGenerator(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*geminiGenerator, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &geminiGenerator{client: client}, nil
}

func (g *geminiGenerator) generate(ctx context.Context, req request) (*reply, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.WantImage {
		cfg.ResponseModalities = []string{"TEXT", "IMAGE"}
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		cfg,
	)
	if err != nil {
		return nil, convertGenAIError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", entity.ErrAIResponse)
	}

	out := &reply{}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			sb.WriteString(p.Text)
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				out.Images = append(out.Images, Image{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data})
			}
		}
		break
	}
	out.Text = sb.String()
	return out, nil
}

func convertGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &StatusError{Code: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("%w: %v", entity.ErrAIUnavailable, err)
}
