package entity

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryTop    Category = "TOP"
	CategoryBottom Category = "BOTTOM"
	CategoryShoes  Category = "SHOES"
)

// ParseCategory accepts any letter case and surrounding spaces.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryTop, CategoryBottom, CategoryShoes:
		return c, true
	}
	return "", false
}

// bottomKeywords mark a garment type as a bottom when the model gives no usable category.
var bottomKeywords = []string{
	"pants", "jeans", "skirt", "shorts", "trousers", "leggings",
	"joggers", "sweatpants", "slacks", "chinos", "bottom",
}

// CategoryFromType guesses a category from a free-text garment type.
func CategoryFromType(garmentType string) Category {
	t := strings.ToLower(garmentType)
	for _, kw := range bottomKeywords {
		if strings.Contains(t, kw) {
			return CategoryBottom
		}
	}
	return CategoryTop
}

const (
	AnalysisPending   = "pending"
	AnalysisCompleted = "completed"
	AnalysisFailed    = "failed"
)

type ItemTags struct {
	Color  string `json:"color,omitempty"`
	Type   string `json:"type,omitempty"`
	Style  string `json:"style,omitempty"`
	Season string `json:"season,omitempty"`

	Name               string   `json:"name,omitempty"`
	SubCategory        string   `json:"sub_category,omitempty"`
	Warmth             string   `json:"warmth,omitempty"`
	Neckline           string   `json:"neckline,omitempty"`
	Closure            string   `json:"closure,omitempty"`
	DominantColor      string   `json:"dominant_color,omitempty"`
	ColorPalette       []string `json:"color_palette,omitempty"`
	Pattern            string   `json:"pattern,omitempty"`
	Fit                string   `json:"fit,omitempty"`
	FormalityReasoning string   `json:"formality_reasoning,omitempty"`
	Formality          int      `json:"formality,omitempty"`
	StyleTags          []string `json:"style_tags,omitempty"`
}

// DefaultTags are applied when an item could not be analysed.
func DefaultTags() ItemTags {
	return ItemTags{
		Color:  "Unknown",
		Type:   "Clothing",
		Style:  "Casual",
		Season: "All",
	}
}

type ClothingItem struct {
	ID             string    `json:"id"`
	ImageKey       string    `json:"image_key"`
	Category       Category  `json:"category"`
	Tags           ItemTags  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	AnalysisStatus string    `json:"analysis_status"`
}

// SplitByCategory returns tops and bottoms, skipping everything else.
func SplitByCategory(items []ClothingItem) (tops, bottoms []ClothingItem) {
	for _, it := range items {
		switch it.Category {
		case CategoryTop:
			tops = append(tops, it)
		case CategoryBottom:
			bottoms = append(bottoms, it)
		}
	}
	return tops, bottoms
}
