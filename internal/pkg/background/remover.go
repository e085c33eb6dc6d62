package background

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// Remover strips the background from garment photos through a
// rembg-compatible HTTP endpoint.
type Remover interface {
	// Remove never fails the caller: when removal is unavailable it returns
	// the input unchanged with removed=false and the reason.
	Remove(ctx context.Context, img []byte) (out []byte, removed bool, reason error)
}

type httpRemover struct {
	endpoint   string
	httpClient *http.Client
}

func NewRemover(enabled bool, endpoint string, timeout time.Duration) Remover {
	if !enabled || endpoint == "" {
		return disabled{}
	}
	return &httpRemover{endpoint: endpoint, httpClient: &http.Client{Timeout: timeout}}
}

type disabled struct{}

var errDisabled = errors.New("background removal is disabled")

func (disabled) Remove(_ context.Context, img []byte) ([]byte, bool, error) {
	return img, false, errDisabled
}

func (r *httpRemover) Remove(ctx context.Context, img []byte) ([]byte, bool, error) {
	out, err := r.remove(ctx, img)
	if err != nil {
		logrus.WithError(err).Warn("background removal unavailable, using original image")
		return img, false, err
	}
	return out, true, nil
}

func (r *httpRemover) remove(ctx context.Context, img []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "garment")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(img); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remover returned status %d", resp.StatusCode)
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if _, err := imaging.Decode(bytes.NewReader(out)); err != nil {
		return nil, fmt.Errorf("remover returned an unreadable image: %w", err)
	}
	return out, nil
}
