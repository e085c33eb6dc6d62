package ai

import (
	"encoding/json"
	"fmt"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
)

const analyzePrompt = "Analyze this clothing item. Return a valid JSON object (no markdown) with exactly these keys: " +
	"color, type (e.g. T-shirt), category ('TOP', 'BOTTOM', or 'SHOES'), style, season."

type inventoryEntry struct {
	ID    string `json:"id"`
	Color string `json:"color,omitempty"`
	Type  string `json:"type,omitempty"`
	Style string `json:"style,omitempty"`
}

func inventory(items []entity.ClothingItem) []inventoryEntry {
	out := make([]inventoryEntry, 0, len(items))
	for _, it := range items {
		out = append(out, inventoryEntry{ID: it.ID, Color: it.Tags.Color, Type: it.Tags.Type, Style: it.Tags.Style})
	}
	return out
}

func advicePrompt(q OutfitQuery) (string, error) {
	inv, err := json.Marshal(struct {
		Tops    []inventoryEntry `json:"tops"`
		Bottoms []inventoryEntry `json:"bottoms"`
	}{inventory(q.Tops), inventory(q.Bottoms)})
	if err != nil {
		return "", fmt.Errorf("encode inventory: %w", err)
	}

	return fmt.Sprintf(`Act as a stylist. User: %s, %s.
Occasion: %q.
Inventory: %s
Select 1 Top and 1 Bottom by exact ID.
Return valid JSON (no markdown) with keys: topId, bottomId, reasoning, styleName.`,
		q.Profile.Gender, q.Profile.Height, q.Occasion, inv), nil
}

func lookPrompt(p entity.UserProfile, styleName string) string {
	return fmt.Sprintf(`Generate a realistic full-body digital human image showing a person wearing this outfit combination.

User Profile:
- Gender: %s
- Height: %s
- Weight: %s
- Skin Tone: %s
- Style: %s

Requirements:
1. Show a full-body view of the person wearing the top and bottom clothing items
2. The person should match the user's profile (gender, height, weight, skin tone)
3. The clothing should fit naturally and look realistic
4. Use a clean, professional background (white or light gray)
5. The image should be high quality and photorealistic
6. The person should be standing in a natural pose, facing forward or slightly to the side

Generate the image showing how this outfit looks when worn.`,
		p.Gender, p.Height, p.Weight, p.SkinTone, styleName)
}
