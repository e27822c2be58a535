package store

import (
	"context"
	"errors"

	"github.com/chunkworks/chunkd/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when creating a record that already exists.
var ErrExists = errors.New("already exists")

// Store defines the persistence interface for chunks.
type Store interface {
	// Global chunks
	CreateChunk(ctx context.Context, chunk *model.Chunk) error
	GetChunk(ctx context.Context, key string) (*model.Chunk, error)
	ListChunks(ctx context.Context, filter model.ChunkFilter) ([]*model.Chunk, int, error) // returns chunks, total count, error
	UpdateChunk(ctx context.Context, chunk *model.Chunk) error
	DeleteChunk(ctx context.Context, key string) error

	// Inline chunks
	CreateInlineChunk(ctx context.Context, chunk *model.InlineChunk) error
	GetInlineChunk(ctx context.Context, owner model.OwnerRef, key string) (*model.InlineChunk, error)
	ListInlineChunks(ctx context.Context, owner model.OwnerRef) ([]*model.InlineChunk, error)
	UpdateInlineChunk(ctx context.Context, chunk *model.InlineChunk) error
	DeleteInlineChunk(ctx context.Context, owner model.OwnerRef, key string) error
	ListAllInlineChunks(ctx context.Context) ([]*model.InlineChunk, error)

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
