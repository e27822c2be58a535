package server

import (
	"strings"
	"testing"

	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/model"
)

func TestHandleCreateInlineChunk(t *testing.T) {
	_, ms, h := newTestServer()
	rec := doJSON(t, h, "POST", "/v1/owners/page/42/chunks", map[string]any{"key": "intro", "content": "Welcome", "created_by": "alice"})
	requireStatus(t, rec, 201)
	var chunk model.InlineChunk
	decodeJSON(t, rec, &chunk)
	if chunk.ID == "" || !strings.HasPrefix(chunk.ID, "ic-") {
		t.Fatalf("expected generated ic- id, got %q", chunk.ID)
	}
	if chunk.OwnerType != "page" || chunk.OwnerID != "42" || chunk.Key != "intro" {
		t.Fatalf("got owner=%s:%s key=%q", chunk.OwnerType, chunk.OwnerID, chunk.Key)
	}
	if len(ms.events) != 1 || ms.events[0].Topic != events.TopicInlineCreated {
		t.Fatalf("expected 1 created event, got %+v", ms.events)
	}
	if ms.events[0].OwnerType != "page" || ms.events[0].OwnerID != "42" {
		t.Fatalf("event missing owner: %+v", ms.events[0])
	}
}

func TestHandleListInlineChunks(t *testing.T) {
	_, ms, h := newTestServer()
	ms.inline["page:42/intro"] = &model.InlineChunk{ID: "ic-1", OwnerType: "page", OwnerID: "42", Key: "intro", Content: "a"}
	ms.inline["page:42/outro"] = &model.InlineChunk{ID: "ic-2", OwnerType: "page", OwnerID: "42", Key: "outro", Content: "b"}
	ms.inline["page:7/intro"] = &model.InlineChunk{ID: "ic-3", OwnerType: "page", OwnerID: "7", Key: "intro", Content: "c"}

	rec := doJSON(t, h, "GET", "/v1/owners/page/42/chunks", nil)
	requireStatus(t, rec, 200)
	var result struct {
		Chunks []model.InlineChunk `json:"chunks"`
	}
	decodeJSON(t, rec, &result)
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks for page:42, got %d", len(result.Chunks))
	}
}

func TestHandleGetInlineChunk(t *testing.T) {
	_, ms, h := newTestServer()
	ms.inline["page:42/intro"] = &model.InlineChunk{ID: "ic-1", OwnerType: "page", OwnerID: "42", Key: "intro", Content: "Welcome"}

	rec := doJSON(t, h, "GET", "/v1/owners/page/42/chunks/intro", nil)
	requireStatus(t, rec, 200)
	var chunk model.InlineChunk
	decodeJSON(t, rec, &chunk)
	if chunk.ID != "ic-1" || chunk.Content != "Welcome" {
		t.Fatalf("got id=%q content=%q", chunk.ID, chunk.Content)
	}
}

func TestHandleUpdateInlineChunk(t *testing.T) {
	_, ms, h := newTestServer()
	ms.inline["page:42/intro"] = &model.InlineChunk{ID: "ic-1", OwnerType: "page", OwnerID: "42", Key: "intro", Content: "old"}

	rec := doJSON(t, h, "PATCH", "/v1/owners/page/42/chunks/intro", map[string]any{"content": "new"})
	requireStatus(t, rec, 200)
	if ms.inline["page:42/intro"].Content != "new" {
		t.Fatalf("expected updated content, got %q", ms.inline["page:42/intro"].Content)
	}
	if len(ms.events) != 1 || ms.events[0].Topic != events.TopicInlineUpdated {
		t.Fatalf("expected 1 updated event, got %+v", ms.events)
	}
}

func TestHandleDeleteInlineChunk(t *testing.T) {
	_, ms, h := newTestServer()
	ms.inline["page:42/intro"] = &model.InlineChunk{ID: "ic-1", OwnerType: "page", OwnerID: "42", Key: "intro", Content: "x"}

	rec := doJSON(t, h, "DELETE", "/v1/owners/page/42/chunks/intro", nil)
	requireStatus(t, rec, 204)
	if _, ok := ms.inline["page:42/intro"]; ok {
		t.Fatal("expected inline chunk to be deleted")
	}
	if len(ms.events) != 1 || ms.events[0].Topic != events.TopicInlineDeleted {
		t.Fatalf("expected 1 deleted event, got %+v", ms.events)
	}
}

func TestHandleResolveInlineChunk(t *testing.T) {
	_, ms, h := newTestServer()
	ms.inline["page:42/intro"] = &model.InlineChunk{ID: "ic-1", OwnerType: "page", OwnerID: "42", Key: "intro", Content: "Owner copy"}
	ms.chunks["intro"] = &model.Chunk{Key: "intro", Content: "Global copy"}

	rec := doJSON(t, h, "GET", "/v1/owners/page/42/chunks/intro/resolve?ttl=60", nil)
	requireStatus(t, rec, 200)
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["text"] != "Owner copy" {
		t.Fatalf("expected inline chunk to win, got %q", body["text"])
	}
}

func TestHandleResolveInlineChunk_DefaultFallback(t *testing.T) {
	_, ms, h := newTestServer()
	ms.chunks["standard-intro"] = &model.Chunk{Key: "standard-intro", Content: "Standard copy"}

	rec := doJSON(t, h, "GET", "/v1/owners/page/42/chunks/intro/resolve?default=standard-intro", nil)
	requireStatus(t, rec, 200)
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["text"] != "Standard copy" {
		t.Fatalf("expected default fallback, got %q", body["text"])
	}
}

func TestHandleResolveInlineChunk_NothingResolves(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, "GET", "/v1/owners/page/42/chunks/intro/resolve", nil)
	requireStatus(t, rec, 200)
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["text"] != "" {
		t.Fatalf("expected empty text, got %q", body["text"])
	}
}

func TestHandleAggregate(t *testing.T) {
	_, ms, h := newTestServer()
	ms.inline["page:42/intro"] = &model.InlineChunk{ID: "ic-1", OwnerType: "page", OwnerID: "42", Key: "intro", Content: "Hello"}
	ms.inline["page:42/outro"] = &model.InlineChunk{ID: "ic-2", OwnerType: "page", OwnerID: "42", Key: "outro", Content: "Bye"}

	rec := doJSON(t, h, "GET", "/v1/owners/page/42/aggregate", nil)
	requireStatus(t, rec, 200)
	var result struct {
		OwnerType string            `json:"owner_type"`
		OwnerID   string            `json:"owner_id"`
		Chunks    map[string]string `json:"chunks"`
	}
	decodeJSON(t, rec, &result)
	if result.OwnerType != "page" || result.OwnerID != "42" {
		t.Fatalf("got owner %s:%s", result.OwnerType, result.OwnerID)
	}
	if len(result.Chunks) != 2 || result.Chunks["intro"] != "Hello" || result.Chunks["outro"] != "Bye" {
		t.Fatalf("unexpected chunks: %+v", result.Chunks)
	}
}

func TestHandleAggregate_NoChunks(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, "GET", "/v1/owners/page/42/aggregate", nil)
	requireStatus(t, rec, 200)
	var result struct {
		Chunks map[string]string `json:"chunks"`
	}
	decodeJSON(t, rec, &result)
	if len(result.Chunks) != 0 {
		t.Fatalf("expected empty mapping, got %+v", result.Chunks)
	}
}
