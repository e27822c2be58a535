package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	ChunkCount  int       `json:"chunk_count"`
	InlineCount int       `json:"inline_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ExportJSONL writes all chunks and inline chunks from the store as JSONL
// to w: a header record first, then chunks sorted by key, then inline
// chunks sorted by (owner type, owner id, key).
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	chunks, _, err := s.ListChunks(ctx, model.ChunkFilter{Sort: "key"})
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Key < chunks[j].Key
	})

	inline, err := s.ListAllInlineChunks(ctx)
	if err != nil {
		return fmt.Errorf("list inline chunks: %w", err)
	}
	sort.Slice(inline, func(i, j int) bool {
		a, b := inline[i], inline[j]
		if a.OwnerType != b.OwnerType {
			return a.OwnerType < b.OwnerType
		}
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		return a.Key < b.Key
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	// Write header.
	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		ChunkCount:  len(chunks),
		InlineCount: len(inline),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, c := range chunks {
		if err := enc.Encode(record{Type: "chunk", Data: c}); err != nil {
			return fmt.Errorf("encode chunk %s: %w", c.Key, err)
		}
	}

	for _, ic := range inline {
		if err := enc.Encode(record{Type: "inline_chunk", Data: ic}); err != nil {
			return fmt.Errorf("encode inline chunk %s: %w", ic.ID, err)
		}
	}

	return nil
}
