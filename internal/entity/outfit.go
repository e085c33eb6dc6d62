package entity

import "time"

const (
	VisualAI      = "ai"
	VisualFlatLay = "flat_lay"
)

// MsgItemsNotFound is reported when the stylist picks ids missing from the wardrobe.
const MsgItemsNotFound = "Matching items not found in inventory."

type OutfitRecommendation struct {
	TopID       string `json:"top_id"`
	BottomID    string `json:"bottom_id"`
	Reasoning   string `json:"reasoning"`
	StyleName   string `json:"style_name"`
	VisualKey   string `json:"visual_key,omitempty"`
	VisualKind  string `json:"visual_kind,omitempty"`
	VisualError string `json:"visual_error,omitempty"`
}

type SavedOutfit struct {
	OutfitRecommendation
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}
