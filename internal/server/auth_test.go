package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chunkworks/chunkd/internal/cache"
	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/page"
	"github.com/chunkworks/chunkd/internal/render"
	"github.com/chunkworks/chunkd/internal/resolve"
)

func newAuthedHandler(token string) http.Handler {
	ms := newMockStore()
	logger := slog.New(slog.DiscardHandler)
	resolver := resolve.New(ms, cache.NewMemory(), render.NewEngine(logger), logger, resolve.Options{})
	s := NewChunkServer(ms, resolver, page.NewEngine(resolver), &events.NoopPublisher{}, logger)
	return s.NewHTTPHandler(token)
}

func TestAuthMiddleware(t *testing.T) {
	for _, tc := range []struct {
		name   string
		header string
		code   int
	}{
		{"MissingHeader", "", 401},
		{"WrongScheme", "Basic c2VjcmV0", 401},
		{"WrongToken", "Bearer wrong", 401},
		{"ValidToken", "Bearer secret", 200},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthedHandler("secret")
			req := httptest.NewRequest("GET", "/v1/chunks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected status %d, got %d; body: %s", tc.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_HealthExempt(t *testing.T) {
	h := newAuthedHandler("secret")
	req := httptest.NewRequest("GET", "/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("health should bypass auth, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	h := newAuthedHandler("")
	req := httptest.NewRequest("GET", "/v1/chunks", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("empty token should disable auth, got %d", rec.Code)
	}
}
