package sync

import (
	"context"
	"sort"

	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	chunks map[string]*model.Chunk
	inline map[string]*model.InlineChunk // keyed by owner.String() + "/" + key
	events []*model.Event
}

func newMockStore() *mockStore {
	return &mockStore{
		chunks: make(map[string]*model.Chunk),
		inline: make(map[string]*model.InlineChunk),
	}
}

func inlineMapKey(owner model.OwnerRef, key string) string {
	return owner.String() + "/" + key
}

func (m *mockStore) CreateChunk(_ context.Context, chunk *model.Chunk) error {
	m.chunks[chunk.Key] = chunk
	return nil
}

func (m *mockStore) GetChunk(_ context.Context, key string) (*model.Chunk, error) {
	c, ok := m.chunks[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *mockStore) ListChunks(_ context.Context, _ model.ChunkFilter) ([]*model.Chunk, int, error) {
	var result []*model.Chunk
	for _, c := range m.chunks {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, len(result), nil
}

func (m *mockStore) UpdateChunk(_ context.Context, chunk *model.Chunk) error {
	m.chunks[chunk.Key] = chunk
	return nil
}

func (m *mockStore) DeleteChunk(_ context.Context, key string) error {
	delete(m.chunks, key)
	return nil
}

func (m *mockStore) CreateInlineChunk(_ context.Context, chunk *model.InlineChunk) error {
	owner := model.OwnerRef{Type: chunk.OwnerType, ID: chunk.OwnerID}
	m.inline[inlineMapKey(owner, chunk.Key)] = chunk
	return nil
}

func (m *mockStore) GetInlineChunk(_ context.Context, owner model.OwnerRef, key string) (*model.InlineChunk, error) {
	c, ok := m.inline[inlineMapKey(owner, key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *mockStore) ListInlineChunks(_ context.Context, owner model.OwnerRef) ([]*model.InlineChunk, error) {
	var result []*model.InlineChunk
	for _, c := range m.inline {
		if c.OwnerType == owner.Type && c.OwnerID == owner.ID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, nil
}

func (m *mockStore) UpdateInlineChunk(_ context.Context, chunk *model.InlineChunk) error {
	owner := model.OwnerRef{Type: chunk.OwnerType, ID: chunk.OwnerID}
	m.inline[inlineMapKey(owner, chunk.Key)] = chunk
	return nil
}

func (m *mockStore) DeleteInlineChunk(_ context.Context, owner model.OwnerRef, key string) error {
	delete(m.inline, inlineMapKey(owner, key))
	return nil
}

func (m *mockStore) ListAllInlineChunks(_ context.Context) ([]*model.InlineChunk, error) {
	var result []*model.InlineChunk
	for _, c := range m.inline {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockStore) RecordEvent(_ context.Context, event *model.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, _ model.EventFilter) ([]*model.Event, error) {
	return m.events, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}
