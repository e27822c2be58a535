package events

import (
	"context"

	"github.com/chunkworks/chunkd/internal/model"
)

// Event topic constants
const (
	TopicChunkCreated = "chunks.chunk.created"
	TopicChunkUpdated = "chunks.chunk.updated"
	TopicChunkDeleted = "chunks.chunk.deleted"

	TopicInlineCreated = "chunks.inline.created"
	TopicInlineUpdated = "chunks.inline.updated"
	TopicInlineDeleted = "chunks.inline.deleted"
)

// WildcardTopic matches every chunkd event subject.
const WildcardTopic = "chunks.>"

// Event types

type ChunkCreated struct {
	Chunk *model.Chunk `json:"chunk"`
}

type ChunkUpdated struct {
	Chunk *model.Chunk `json:"chunk"`
}

type ChunkDeleted struct {
	Key string `json:"key"`
}

type InlineCreated struct {
	Chunk *model.InlineChunk `json:"chunk"`
}

type InlineUpdated struct {
	Chunk *model.InlineChunk `json:"chunk"`
}

type InlineDeleted struct {
	Owner model.OwnerRef `json:"owner"`
	Key   string         `json:"key"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
