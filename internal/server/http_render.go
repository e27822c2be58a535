package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/page"
	"github.com/chunkworks/chunkd/internal/render"
	"github.com/chunkworks/chunkd/internal/sync"
)

type renderPageInput struct {
	Body   string                    `json:"body"`
	Vars   map[string]any            `json:"vars"`
	Owners map[string]model.OwnerRef `json:"owners"`
}

// handleRenderPage handles POST /v1/render: parse the directive body, bind
// the named owners into the render context, and render. Directive syntax
// errors are the client's fault; a missing request cannot happen here since
// the inbound request is the execution context.
func (s *ChunkServer) handleRenderPage(w http.ResponseWriter, r *http.Request) {
	var in renderPageInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tmpl, err := s.pages.Parse(in.Body)
	if err != nil {
		var serr *page.SyntaxError
		if errors.As(err, &serr) {
			writeError(w, http.StatusBadRequest, serr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to parse page")
		return
	}

	rctx := render.NewContext(r.Context()).
		WithRequest(render.NewRequestData(r)).
		WithVars(in.Vars)
	for name, ref := range in.Owners {
		if err := model.ValidateOwnerRef(ref); err != nil {
			writeInputError(w, err)
			return
		}
		rctx.SetVar(name, s.resolver.Entity(ref.Type, ref.ID))
	}

	output, err := tmpl.Render(rctx)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"output": output})
}

// handleExport handles GET /v1/export: a JSONL dump of every chunk and
// inline chunk, streamed directly to the response.
func (s *ChunkServer) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	if err := sync.ExportJSONL(r.Context(), s.store, w); err != nil {
		// Headers are already sent; all we can do is log and cut the stream.
		s.logger.Error("export failed", "error", err)
	}
}
