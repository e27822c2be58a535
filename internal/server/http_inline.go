package server

import (
	"encoding/json"
	"net/http"

	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/idgen"
	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/render"
)

type createInlineChunkInput struct {
	Key       string `json:"key"`
	Content   string `json:"content"`
	CreatedBy string `json:"created_by"`
}

// handleCreateInlineChunk handles POST /v1/owners/{type}/{id}/chunks.
func (s *ChunkServer) handleCreateInlineChunk(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	var in createInlineChunkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := idgen.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate id")
		return
	}
	chunk := &model.InlineChunk{
		ID:        id,
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		Key:       in.Key,
		Content:   in.Content,
		CreatedBy: in.CreatedBy,
	}
	if err := model.ValidateInlineChunk(chunk); err != nil {
		writeInputError(w, err)
		return
	}

	if err := s.store.CreateInlineChunk(r.Context(), chunk); err != nil {
		writeStoreError(w, err, "inline chunk")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicInlineCreated, owner, chunk.Key, in.CreatedBy,
		events.InlineCreated{Chunk: chunk})

	writeJSON(w, http.StatusCreated, chunk)
}

// handleListInlineChunks handles GET /v1/owners/{type}/{id}/chunks.
func (s *ChunkServer) handleListInlineChunks(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	chunks, err := s.store.ListInlineChunks(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list inline chunks")
		return
	}
	if chunks == nil {
		chunks = []*model.InlineChunk{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

// handleGetInlineChunk handles GET /v1/owners/{type}/{id}/chunks/{key}.
func (s *ChunkServer) handleGetInlineChunk(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	chunk, err := s.store.GetInlineChunk(r.Context(), owner, r.PathValue("key"))
	if err != nil {
		writeStoreError(w, err, "inline chunk")
		return
	}

	writeJSON(w, http.StatusOK, chunk)
}

// handleUpdateInlineChunk handles PATCH /v1/owners/{type}/{id}/chunks/{key}.
func (s *ChunkServer) handleUpdateInlineChunk(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}
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
	if len(*in.Content) > model.MaxContentLen {
		writeError(w, http.StatusBadRequest, "content too large")
		return
	}

	// Updates address the record by (owner, key); fetch it for its ID.
	chunk, err := s.store.GetInlineChunk(r.Context(), owner, key)
	if err != nil {
		writeStoreError(w, err, "inline chunk")
		return
	}
	chunk.Content = *in.Content

	if err := s.store.UpdateInlineChunk(r.Context(), chunk); err != nil {
		writeStoreError(w, err, "inline chunk")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicInlineUpdated, owner, chunk.Key, "",
		events.InlineUpdated{Chunk: chunk})

	writeJSON(w, http.StatusOK, chunk)
}

// handleDeleteInlineChunk handles DELETE /v1/owners/{type}/{id}/chunks/{key}.
func (s *ChunkServer) handleDeleteInlineChunk(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")

	if err := s.store.DeleteInlineChunk(r.Context(), owner, key); err != nil {
		writeStoreError(w, err, "inline chunk")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicInlineDeleted, owner, key, "",
		events.InlineDeleted{Owner: owner, Key: key})

	w.WriteHeader(http.StatusNoContent)
}

// handleResolveInlineChunk handles GET /v1/owners/{type}/{id}/chunks/{key}/resolve.
func (s *ChunkServer) handleResolveInlineChunk(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	ttl, err := parseTTL(r.URL.Query().Get("ttl"))
	if err != nil {
		writeInputError(w, err)
		return
	}
	defaultKey := r.URL.Query().Get("default")

	rctx := render.NewContext(r.Context()).WithRequest(render.NewRequestData(r))
	text, err := s.resolver.Object(rctx, s.resolver.Entity(owner.Type, owner.ID), key, ttl, defaultKey)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"owner_type": owner.Type,
		"owner_id":   owner.ID,
		"key":        key,
		"text":       text,
	})
}

// handleAggregate handles GET /v1/owners/{type}/{id}/aggregate: the bulk
// rendered mapping backing the object_chunks_list directive.
func (s *ChunkServer) handleAggregate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	rctx := render.NewContext(r.Context()).WithRequest(render.NewRequestData(r))
	chunks, err := s.resolver.ChunksFor(rctx, owner)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"owner_type": owner.Type,
		"owner_id":   owner.ID,
		"chunks":     chunks,
	})
}
