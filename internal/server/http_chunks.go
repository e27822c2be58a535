package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/render"
	"github.com/chunkworks/chunkd/internal/store"
)

type createChunkInput struct {
	Key       string `json:"key"`
	Content   string `json:"content"`
	CreatedBy string `json:"created_by"`
}

type updateChunkInput struct {
	Content *string `json:"content"`
}

// handleCreateChunk handles POST /v1/chunks.
func (s *ChunkServer) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	var in createChunkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	chunk := &model.Chunk{Key: in.Key, Content: in.Content, CreatedBy: in.CreatedBy}
	if err := model.ValidateChunk(chunk); err != nil {
		writeInputError(w, err)
		return
	}

	if err := s.store.CreateChunk(r.Context(), chunk); err != nil {
		writeStoreError(w, err, "chunk")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicChunkCreated, model.OwnerRef{}, chunk.Key, in.CreatedBy,
		events.ChunkCreated{Chunk: chunk})

	writeJSON(w, http.StatusCreated, chunk)
}

// handleListChunks handles GET /v1/chunks.
func (s *ChunkServer) handleListChunks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ChunkFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	chunks, total, err := s.store.ListChunks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chunks")
		return
	}

	// Ensure chunks is never null in JSON output.
	if chunks == nil {
		chunks = []*model.Chunk{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chunks": chunks,
		"total":  total,
	})
}

// handleGetChunk handles GET /v1/chunks/{key}.
func (s *ChunkServer) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	chunk, err := s.store.GetChunk(r.Context(), key)
	if err != nil {
		writeStoreError(w, err, "chunk")
		return
	}

	writeJSON(w, http.StatusOK, chunk)
}

// handleUpdateChunk handles PATCH /v1/chunks/{key}.
func (s *ChunkServer) handleUpdateChunk(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var in updateChunkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Content == nil {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	chunk := &model.Chunk{Key: key, Content: *in.Content}
	if err := model.ValidateChunk(chunk); err != nil {
		writeInputError(w, err)
		return
	}

	if err := s.store.UpdateChunk(r.Context(), chunk); err != nil {
		writeStoreError(w, err, "chunk")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicChunkUpdated, model.OwnerRef{}, chunk.Key, "",
		events.ChunkUpdated{Chunk: chunk})

	writeJSON(w, http.StatusOK, chunk)
}

// handleDeleteChunk handles DELETE /v1/chunks/{key}.
func (s *ChunkServer) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := s.store.DeleteChunk(r.Context(), key); err != nil {
		writeStoreError(w, err, "chunk")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicChunkDeleted, model.OwnerRef{}, key, "",
		events.ChunkDeleted{Key: key})

	w.WriteHeader(http.StatusNoContent)
}

// handleResolveChunk handles GET /v1/chunks/{key}/resolve.
func (s *ChunkServer) handleResolveChunk(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	ttl, err := parseTTL(r.URL.Query().Get("ttl"))
	if err != nil {
		writeInputError(w, err)
		return
	}

	rctx := render.NewContext(r.Context()).WithRequest(render.NewRequestData(r))
	text, err := s.resolver.Global(rctx, key, ttl)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key, "text": text})
}

// handleChunkEvents handles GET /v1/chunks/{key}/events.
func (s *ChunkServer) handleChunkEvents(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	s.writeEvents(w, r, model.EventFilter{Key: key})
}

// handleInlineChunkEvents handles GET /v1/owners/{type}/{id}/chunks/{key}/events.
func (s *ChunkServer) handleInlineChunkEvents(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}
	s.writeEvents(w, r, model.EventFilter{
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		Key:       r.PathValue("key"),
	})
}

// writeEvents lists recorded events matching filter, honoring a limit query.
func (s *ChunkServer) writeEvents(w http.ResponseWriter, r *http.Request, filter model.EventFilter) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	evts, err := s.store.ListEvents(r.Context(), filter)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}
