package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/resolve"
	"github.com/chunkworks/chunkd/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *ChunkServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chunks", s.handleCreateChunk)
	mux.HandleFunc("GET /v1/chunks", s.handleListChunks)
	mux.HandleFunc("GET /v1/chunks/{key}", s.handleGetChunk)
	mux.HandleFunc("PATCH /v1/chunks/{key}", s.handleUpdateChunk)
	mux.HandleFunc("DELETE /v1/chunks/{key}", s.handleDeleteChunk)
	mux.HandleFunc("GET /v1/chunks/{key}/resolve", s.handleResolveChunk)
	mux.HandleFunc("GET /v1/chunks/{key}/events", s.handleChunkEvents)
	mux.HandleFunc("POST /v1/owners/{type}/{id}/chunks", s.handleCreateInlineChunk)
	mux.HandleFunc("GET /v1/owners/{type}/{id}/chunks", s.handleListInlineChunks)
	mux.HandleFunc("GET /v1/owners/{type}/{id}/chunks/{key}", s.handleGetInlineChunk)
	mux.HandleFunc("PATCH /v1/owners/{type}/{id}/chunks/{key}", s.handleUpdateInlineChunk)
	mux.HandleFunc("DELETE /v1/owners/{type}/{id}/chunks/{key}", s.handleDeleteInlineChunk)
	mux.HandleFunc("GET /v1/owners/{type}/{id}/chunks/{key}/resolve", s.handleResolveInlineChunk)
	mux.HandleFunc("GET /v1/owners/{type}/{id}/chunks/{key}/events", s.handleInlineChunkEvents)
	mux.HandleFunc("GET /v1/owners/{type}/{id}/aggregate", s.handleAggregate)
	mux.HandleFunc("POST /v1/render", s.handleRenderPage)
	mux.HandleFunc("GET /v1/export", s.handleExport)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *ChunkServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownerFromPath extracts and validates the owner reference from {type}/{id}
// path segments. On failure it writes a 400 and returns false.
func ownerFromPath(w http.ResponseWriter, r *http.Request) (model.OwnerRef, bool) {
	owner := model.OwnerRef{Type: r.PathValue("type"), ID: r.PathValue("id")}
	if err := model.ValidateOwnerRef(owner); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.OwnerRef{}, false
	}
	return owner, true
}

// parseTTL parses a ttl query parameter in seconds. Empty means zero.
func parseTTL(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, inputError("ttl must be a non-negative integer")
	}
	return n, nil
}

// writeStoreError maps a store failure onto an HTTP response.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, what+" already exists")
	default:
		writeError(w, http.StatusInternalServerError, "failed to access "+what)
	}
}

// writeResolveError maps a resolution failure onto an HTTP response. A
// missing request is a server misconfiguration, not a client error.
func writeResolveError(w http.ResponseWriter, err error) {
	if errors.Is(err, resolve.ErrNoRequest) {
		writeError(w, http.StatusInternalServerError, "server misconfigured: render context has no request")
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to resolve chunk")
}

// writeInputError maps validation failures to 400, everything else to 500.
func writeInputError(w http.ResponseWriter, err error) {
	var ie inputError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
