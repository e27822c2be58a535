// Package client provides a transport-agnostic interface for the chunkd
// service and an HTTP/JSON implementation that talks to the chunkd REST API.
package client

import (
	"context"
	"io"

	"github.com/chunkworks/chunkd/internal/model"
)

// ChunkClient is the interface that all chunkctl commands use to communicate
// with the chunkd server. It is implemented by HTTPClient.
type ChunkClient interface {
	// Global chunks
	CreateChunk(ctx context.Context, req *CreateChunkRequest) (*model.Chunk, error)
	GetChunk(ctx context.Context, key string) (*model.Chunk, error)
	ListChunks(ctx context.Context, req *ListChunksRequest) (*ListChunksResponse, error)
	UpdateChunk(ctx context.Context, key, content string) (*model.Chunk, error)
	DeleteChunk(ctx context.Context, key string) error
	ResolveChunk(ctx context.Context, key string, ttl int) (string, error)

	// Inline chunks
	CreateInlineChunk(ctx context.Context, owner model.OwnerRef, req *CreateChunkRequest) (*model.InlineChunk, error)
	GetInlineChunk(ctx context.Context, owner model.OwnerRef, key string) (*model.InlineChunk, error)
	ListInlineChunks(ctx context.Context, owner model.OwnerRef) ([]*model.InlineChunk, error)
	UpdateInlineChunk(ctx context.Context, owner model.OwnerRef, key, content string) (*model.InlineChunk, error)
	DeleteInlineChunk(ctx context.Context, owner model.OwnerRef, key string) error
	ResolveInlineChunk(ctx context.Context, owner model.OwnerRef, key string, ttl int, defaultKey string) (string, error)
	Aggregate(ctx context.Context, owner model.OwnerRef) (map[string]string, error)

	// Pages
	RenderPage(ctx context.Context, req *RenderPageRequest) (string, error)

	// Events
	ChunkEvents(ctx context.Context, key string, limit int) ([]*model.Event, error)
	InlineChunkEvents(ctx context.Context, owner model.OwnerRef, key string, limit int) ([]*model.Event, error)

	// Export streams the JSONL snapshot; the caller must close the reader.
	Export(ctx context.Context) (io.ReadCloser, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateChunkRequest holds parameters for creating a global or inline chunk.
type CreateChunkRequest struct {
	Key       string `json:"key"`
	Content   string `json:"content"`
	CreatedBy string `json:"created_by,omitempty"`
}

// ListChunksRequest holds parameters for listing global chunks.
type ListChunksRequest struct {
	Search string `json:"search,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ListChunksResponse is the response from ListChunks.
type ListChunksResponse struct {
	Chunks []*model.Chunk `json:"chunks"`
	Total  int            `json:"total"`
}

// RenderPageRequest holds a page body plus the variables and owner bindings
// visible to its directives.
type RenderPageRequest struct {
	Body   string                    `json:"body"`
	Vars   map[string]any            `json:"vars,omitempty"`
	Owners map[string]model.OwnerRef `json:"owners,omitempty"`
}
