package model

import (
	"time"
)

// Chunk is a globally shared fragment of page content, addressed by key.
type Chunk struct {
	Key       string    `json:"key"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InlineChunk is a content fragment attached to a single owner entity.
// An inline chunk with the same key as a global chunk shadows it for
// that owner.
type InlineChunk struct {
	ID        string    `json:"id"`
	OwnerType string    `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	Key       string    `json:"key"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerRef identifies the entity an inline chunk belongs to.
type OwnerRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// String formats the reference as "type:id".
func (r OwnerRef) String() string {
	return r.Type + ":" + r.ID
}

// IsZero reports whether the reference is empty.
func (r OwnerRef) IsZero() bool {
	return r.Type == "" && r.ID == ""
}
