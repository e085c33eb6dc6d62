package ai

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/gabriel-vasile/mimetype"
)

// CleanJSON drops markdown code fences a model may wrap around JSON.
func CleanJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func decodeReply(text string, v any) error {
	cleaned := CleanJSON(text)
	if cleaned == "" {
		return fmt.Errorf("%w: empty reply", entity.ErrAIResponse)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrAIResponse, err)
	}
	return nil
}

// ParseAnalysis reads the tagging reply. A category other than TOP or BOTTOM
// is replaced by a guess from the garment type.
func ParseAnalysis(text string) (*ItemAnalysis, error) {
	var raw struct {
		entity.ItemTags
		Category  string          `json:"category"`
		Formality json.RawMessage `json:"formality"`
	}
	if err := decodeReply(text, &raw); err != nil {
		return nil, err
	}

	tags := raw.ItemTags
	tags.Formality = parseFormality(raw.Formality)

	out := &ItemAnalysis{Tags: tags}
	switch c, _ := entity.ParseCategory(raw.Category); c {
	case entity.CategoryTop, entity.CategoryBottom:
		out.Category = c
	default:
		out.Category = entity.CategoryFromType(tags.Type)
		out.CategoryGuessed = true
	}
	return out, nil
}

// parseFormality accepts 3, 3.0 and "3"; anything else is dropped.
func parseFormality(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &f); err == nil {
			return int(f)
		}
	}
	return 0
}

// flexID accepts a JSON string or number.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*id = flexID(n.String())
	}
	return nil
}

func ParseAdvice(text string) (*Advice, error) {
	var raw struct {
		TopID     flexID `json:"topId"`
		BottomID  flexID `json:"bottomId"`
		Reasoning string `json:"reasoning"`
		StyleName string `json:"styleName"`
	}
	if err := decodeReply(text, &raw); err != nil {
		return nil, err
	}
	return &Advice{
		TopID:     string(raw.TopID),
		BottomID:  string(raw.BottomID),
		Reasoning: raw.Reasoning,
		StyleName: raw.StyleName,
	}, nil
}

var (
	base64Only      = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	base64WithSpace = regexp.MustCompile(`^[A-Za-z0-9+/=\s]+$`)
)

// ExtractImage finds an image in a free-form reply. It probes, in order: a
// data URL, a JSON content array with image_url parts, JSON image/data
// fields, an OpenAI style choices array, and finally bare base64.
func ExtractImage(text string) (*Image, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", entity.ErrAIResponse)
	}

	if strings.HasPrefix(text, "data:image") {
		return DecodeDataURL(text)
	}

	var parsed struct {
		Content json.RawMessage `json:"content"`
		Image   string          `json:"image"`
		Data    string          `json:"data"`
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		var parts []contentPart
		if json.Unmarshal(parsed.Content, &parts) == nil {
			for _, p := range parts {
				if p.Type != "image_url" || p.ImageURL == nil || p.ImageURL.URL == "" {
					continue
				}
				if img, ok := imageFromString(p.ImageURL.URL); ok {
					return img, nil
				}
			}
		}

		if data := firstNonEmpty(parsed.Image, parsed.Data); data != "" {
			if img, ok := imageFromString(data); ok {
				return img, nil
			}
		}

		if len(parsed.Choices) > 0 {
			var content string
			if json.Unmarshal(parsed.Choices[0].Message.Content, &content) == nil && strings.HasPrefix(content, "data:image") {
				return DecodeDataURL(content)
			}
		}
	}

	if strings.HasPrefix(text, "/9j/") || strings.HasPrefix(text, "iVBORw0KGgo") || base64WithSpace.MatchString(text) {
		return decodeBase64Image(strings.Join(strings.Fields(text), ""))
	}

	return nil, fmt.Errorf("%w: no image in reply", entity.ErrAIResponse)
}

func imageFromString(s string) (*Image, bool) {
	if strings.HasPrefix(s, "data:") {
		img, err := DecodeDataURL(s)
		return img, err == nil
	}
	if base64Only.MatchString(s) {
		img, err := decodeBase64Image(s)
		return img, err == nil
	}
	return nil, false
}

// DecodeDataURL decodes a base64 data URL such as data:image/png;base64,....
func DecodeDataURL(url string) (*Image, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data url", entity.ErrAIResponse)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: unsupported data url", entity.ErrAIResponse)
	}

	img, err := decodeBase64Image(strings.Join(strings.Fields(payload), ""))
	if err != nil {
		return nil, err
	}
	if mime := strings.TrimSuffix(meta, ";base64"); mime != "" {
		img.MIMEType = mime
	}
	return img, nil
}

// DataURL encodes img for transports that want inline data URLs.
func DataURL(img Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = mimetype.Detect(img.Data).String()
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func decodeBase64Image(s string) (*Image, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w: invalid base64 image", entity.ErrAIResponse)
	}
	return &Image{MIMEType: mimetype.Detect(data).String(), Data: data}, nil
}
