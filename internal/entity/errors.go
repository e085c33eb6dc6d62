package entity

import "errors"

var (
	// Wardrobe errors
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrNotEnoughItems  = errors.New("need at least one top and one bottom")

	// History errors
	ErrOutfitNotFound = errors.New("outfit not found")
	ErrVisualNotFound = errors.New("visual not found")

	// AI errors
	ErrAIUnavailable = errors.New("ai service unavailable")
	ErrAIResponse    = errors.New("ai response could not be parsed")
	ErrAINotEnabled  = errors.New("ai feature disabled")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
	ErrQueueError    = errors.New("queue error")
)
