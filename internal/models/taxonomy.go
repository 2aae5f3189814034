package models

import "time"

// Confidence reflects how a category entry was resolved.
type Confidence string

const (
	ConfidenceUnknown     Confidence = "unknown"
	ConfidenceInferred    Confidence = "inferred"
	ConfidenceAPIVerified Confidence = "api_verified"
)

// CategoryEntry maps an opaque marketplace category id to a human-readable
// macro category path. Once api_verified an entry is never rewritten.
type CategoryEntry struct {
	ID            string     `json:"id"`
	MacroCategory string     `json:"macro_category,omitempty"`
	MacroPath     string     `json:"macro_path,omitempty"`
	Labels        []string   `json:"labels"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Confidence    Confidence `json:"confidence"`
}

// CategoryNode is one flat record of the authoritative category tree.
type CategoryNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
	IsLeaf   bool   `json:"is_leaf"`
}
