package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/model"
)

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil) // all topics
	defer hub.unsubscribe(client)

	hub.broadcast("chunks.chunk.created", []byte(`{"key":"footer"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != "chunks.chunk.created" {
			t.Fatalf("expected topic=%q, got %q", "chunks.chunk.created", evt.Topic)
		}
		if string(evt.Data) != `{"key":"footer"}` {
			t.Fatalf("expected data=%q, got %q", `{"key":"footer"}`, string(evt.Data))
		}
		if evt.ID != 1 {
			t.Fatalf("expected id=1, got %d", evt.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_TopicFiltering(t *testing.T) {
	hub := newSSEHub()

	// Client only wants global chunk events.
	client := hub.subscribe([]string{"chunks.chunk.*"})
	defer hub.unsubscribe(client)

	hub.broadcast("chunks.inline.created", []byte(`{"key":"intro"}`))
	hub.broadcast("chunks.chunk.created", []byte(`{"key":"footer"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != "chunks.chunk.created" {
			t.Fatalf("expected topic=%q, got %q", "chunks.chunk.created", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	// Ensure no more events (inline.created should have been filtered).
	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event: topic=%q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
		// Good - no extra events.
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil)
	hub.unsubscribe(client)

	hub.broadcast("chunks.chunk.created", []byte(`{}`))

	select {
	case <-client.ch:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_EventsSince(t *testing.T) {
	hub := newSSEHub()

	// Broadcast 5 events.
	for i := range 5 {
		hub.broadcast("chunks.chunk.created", []byte(`{"n":`+string(rune('0'+i))+`}`))
	}

	// Get events after ID 2 (should return IDs 3, 4, 5).
	evts := hub.eventsSince(2)
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	if evts[0].ID != 3 || evts[1].ID != 4 || evts[2].ID != 5 {
		t.Fatalf("expected IDs [3,4,5], got [%d,%d,%d]", evts[0].ID, evts[1].ID, evts[2].ID)
	}
}

func TestSSEHub_EventsSince_Empty(t *testing.T) {
	hub := newSSEHub()
	evts := hub.eventsSince(0)
	if len(evts) != 0 {
		t.Fatalf("expected 0 events, got %d", len(evts))
	}
}

func TestSSEHub_RingBufferWrap(t *testing.T) {
	hub := newSSEHub()

	// Fill the ring buffer and then some to force wrap.
	for range sseRingBufferSize + 100 {
		hub.broadcast("chunks.chunk.created", []byte(`{}`))
	}

	// The oldest event in the buffer should have ID = 101 (100 were evicted).
	evts := hub.eventsSince(0)
	if len(evts) != sseRingBufferSize {
		t.Fatalf("expected %d events, got %d", sseRingBufferSize, len(evts))
	}
	if evts[0].ID != 101 {
		t.Fatalf("expected oldest event ID=101, got %d", evts[0].ID)
	}
}

func TestMatchTopicPattern(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"chunks.chunk.created", "chunks.chunk.created", true},
		{"chunks.chunk.created", "chunks.chunk.updated", false},
		{"chunks.chunk.*", "chunks.chunk.created", true},
		{"chunks.chunk.*", "chunks.inline.created", false},
		{"chunks.>", "chunks.chunk.created", true},
		{"chunks.>", "chunks.inline.deleted", true},
		{"chunks.>", "other.topic", false},
		{"*.*.*", "chunks.chunk.created", true},
		{"*.*.*", "chunks.chunk", false},
	} {
		t.Run(tc.pattern+"_"+tc.topic, func(t *testing.T) {
			got := matchTopicPattern(tc.pattern, tc.topic)
			if got != tc.want {
				t.Fatalf("matchTopicPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
			}
		})
	}
}

// TestHandleEventStream_SSE tests the full HTTP SSE endpoint.
func TestHandleEventStream_SSE(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	// Give the handler time to register the subscription.
	time.Sleep(50 * time.Millisecond)

	srv.sseHub.broadcast("chunks.chunk.created", []byte(`{"key":"footer"}`))

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected Content-Type=text/event-stream, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event:chunks.chunk.created") {
		t.Fatalf("expected event:chunks.chunk.created in body, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"key":"footer"}`) {
		t.Fatalf("expected data with footer in body, got:\n%s", body)
	}
}

// TestHandleEventStream_TopicFilter tests the ?topics= query param.
func TestHandleEventStream_TopicFilter(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream?topics=chunks.inline.*", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)

	// A global chunk event (filtered) and an inline event (passes).
	srv.sseHub.broadcast("chunks.chunk.created", []byte(`{"key":"footer"}`))
	srv.sseHub.broadcast("chunks.inline.created", []byte(`{"key":"intro"}`))

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, "chunks.chunk.created") {
		t.Fatalf("expected global chunk event to be filtered out, got:\n%s", body)
	}
	if !strings.Contains(body, "chunks.inline.created") {
		t.Fatalf("expected inline event in body, got:\n%s", body)
	}
}

// TestHandleEventStream_LastEventID tests reconnection with Last-Event-ID.
func TestHandleEventStream_LastEventID(t *testing.T) {
	srv, _, handler := newTestServer()

	// Pre-broadcast 3 events before connecting.
	srv.sseHub.broadcast("chunks.chunk.created", []byte(`{"n":1}`))
	srv.sseHub.broadcast("chunks.chunk.updated", []byte(`{"n":2}`))
	srv.sseHub.broadcast("chunks.chunk.deleted", []byte(`{"n":3}`))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req.Header.Set("Last-Event-ID", "1") // Should replay events 2 and 3.
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, `data:{"n":1}`) {
		t.Fatalf("expected event 1 to be skipped, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":2}`) {
		t.Fatalf("expected event 2 in body, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":3}`) {
		t.Fatalf("expected event 3 in body, got:\n%s", body)
	}
}

// TestHandleEventStream_RecordAndPublish tests that recordAndPublish broadcasts to SSE.
func TestHandleEventStream_RecordAndPublish(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)

	// Use recordAndPublish (which the HTTP handlers use) to emit an event.
	srv.recordAndPublish(context.Background(), events.TopicChunkCreated, model.OwnerRef{}, "footer",
		"alice", events.ChunkCreated{Chunk: &model.Chunk{Key: "footer"}})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event:chunks.chunk.created") {
		t.Fatalf("expected SSE event from recordAndPublish, got:\n%s", body)
	}
}

// TestSSEEventFormat verifies the exact SSE wire format.
func TestSSEEventFormat(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	srv.sseHub.broadcast("chunks.chunk.created", []byte(`{"key":"footer"}`))
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	var id, event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "id:") {
			id = strings.TrimPrefix(line, "id:")
		} else if strings.HasPrefix(line, "event:") {
			event = strings.TrimPrefix(line, "event:")
		} else if strings.HasPrefix(line, "data:") {
			data = strings.TrimPrefix(line, "data:")
		}
	}

	if id == "" {
		t.Fatal("expected non-empty id field")
	}
	if event != "chunks.chunk.created" {
		t.Fatalf("expected event=chunks.chunk.created, got %q", event)
	}
	if !json.Valid([]byte(data)) {
		t.Fatalf("expected valid JSON data, got %q", data)
	}
	if data != `{"key":"footer"}` {
		t.Fatalf("expected data=%q, got %q", `{"key":"footer"}`, data)
	}
}
