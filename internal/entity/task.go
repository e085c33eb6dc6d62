package entity

// AnalysisTask is the queue payload asking a worker to tag a stored item.
type AnalysisTask struct {
	ItemID   string `json:"item_id"`
	ImageKey string `json:"image_key"`
	MimeType string `json:"mime_type"`
	// Category is the user's explicit choice; it wins over the model's guess.
	Category Category `json:"category,omitempty"`
	Attempt  int      `json:"attempt"`
}
