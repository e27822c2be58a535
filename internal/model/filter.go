package model

// ChunkFilter holds criteria for querying global chunks.
type ChunkFilter struct {
	Search string `json:"search,omitempty"` // substring match on key/content
	Sort   string `json:"sort,omitempty"`   // e.g. "-updated_at", "key"; prefix "-" = descending
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// EventFilter holds criteria for querying recorded events.
type EventFilter struct {
	Topic     string `json:"topic,omitempty"`
	OwnerType string `json:"owner_type,omitempty"`
	OwnerID   string `json:"owner_id,omitempty"`
	Key       string `json:"key,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
