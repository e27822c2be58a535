package resolve

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chunkworks/chunkd/internal/cache"
	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/render"
	"github.com/chunkworks/chunkd/internal/store"
)

// fakeStore is an in-memory store.Store that counts lookup calls so tests
// can assert the cache short-circuits repeat resolutions.
type fakeStore struct {
	chunks map[string]*model.Chunk
	inline map[string]*model.InlineChunk // owner.String() + "|" + key

	getChunkCalls   int
	getInlineCalls  int
	listInlineCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chunks: make(map[string]*model.Chunk),
		inline: make(map[string]*model.InlineChunk),
	}
}

func inlineKey(owner model.OwnerRef, key string) string {
	return owner.String() + "|" + key
}

func (s *fakeStore) CreateChunk(ctx context.Context, c *model.Chunk) error {
	s.chunks[c.Key] = c
	return nil
}

func (s *fakeStore) GetChunk(ctx context.Context, key string) (*model.Chunk, error) {
	s.getChunkCalls++
	c, ok := s.chunks[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) ListChunks(ctx context.Context, filter model.ChunkFilter) ([]*model.Chunk, int, error) {
	var out []*model.Chunk
	for _, c := range s.chunks {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *fakeStore) UpdateChunk(ctx context.Context, c *model.Chunk) error {
	s.chunks[c.Key] = c
	return nil
}

func (s *fakeStore) DeleteChunk(ctx context.Context, key string) error {
	delete(s.chunks, key)
	return nil
}

func (s *fakeStore) CreateInlineChunk(ctx context.Context, ic *model.InlineChunk) error {
	s.inline[inlineKey(model.OwnerRef{Type: ic.OwnerType, ID: ic.OwnerID}, ic.Key)] = ic
	return nil
}

func (s *fakeStore) GetInlineChunk(ctx context.Context, owner model.OwnerRef, key string) (*model.InlineChunk, error) {
	s.getInlineCalls++
	ic, ok := s.inline[inlineKey(owner, key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return ic, nil
}

func (s *fakeStore) ListInlineChunks(ctx context.Context, owner model.OwnerRef) ([]*model.InlineChunk, error) {
	s.listInlineCalls++
	var out []*model.InlineChunk
	for _, ic := range s.inline {
		if ic.OwnerType == owner.Type && ic.OwnerID == owner.ID {
			out = append(out, ic)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateInlineChunk(ctx context.Context, ic *model.InlineChunk) error {
	return nil
}

func (s *fakeStore) DeleteInlineChunk(ctx context.Context, owner model.OwnerRef, key string) error {
	delete(s.inline, inlineKey(owner, key))
	return nil
}

func (s *fakeStore) ListAllInlineChunks(ctx context.Context) ([]*model.InlineChunk, error) {
	var out []*model.InlineChunk
	for _, ic := range s.inline {
		out = append(out, ic)
	}
	return out, nil
}

func (s *fakeStore) RecordEvent(ctx context.Context, e *model.Event) error { return nil }

func (s *fakeStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	return nil, nil
}

func (s *fakeStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *fakeStore) Close() error { return nil }

// fakeRenderer returns content unchanged and counts invocations.
type fakeRenderer struct {
	calls int
	err   error
}

func (r *fakeRenderer) Render(rctx *render.Context, content string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return content, nil
}

func testContext() *render.Context {
	req := httptest.NewRequest("GET", "/page", nil)
	return render.NewContext(context.Background()).WithRequest(render.NewRequestData(req))
}

func newTestResolver(opts Options) (*Resolver, *fakeStore, *cache.MemoryCache, *fakeRenderer) {
	st := newFakeStore()
	c := cache.NewMemory()
	rd := &fakeRenderer{}
	r := New(st, c, rd, slog.New(slog.DiscardHandler), opts)
	return r, st, c, rd
}

func TestGlobal_RendersAndCaches(t *testing.T) {
	r, st, c, rd := newTestResolver(Options{})
	st.chunks["footer"] = &model.Chunk{Key: "footer", Content: "(c) Acme"}

	got, err := r.Global(testContext(), "footer", 60)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if got != "(c) Acme" {
		t.Errorf("got %q, want %q", got, "(c) Acme")
	}

	cached, err := c.Get(GlobalKey("footer"))
	if err != nil {
		t.Fatalf("cache entry missing after resolve: %v", err)
	}
	if string(cached) != "(c) Acme" {
		t.Errorf("cached %q, want %q", cached, "(c) Acme")
	}

	// Second call within the TTL: no store lookup, no render.
	got2, err := r.Global(testContext(), "footer", 60)
	if err != nil {
		t.Fatalf("Global (cached): %v", err)
	}
	if got2 != got {
		t.Errorf("cached call returned %q, want %q", got2, got)
	}
	if st.getChunkCalls != 1 {
		t.Errorf("store consulted %d times, want 1", st.getChunkCalls)
	}
	if rd.calls != 1 {
		t.Errorf("renderer invoked %d times, want 1", rd.calls)
	}
}

func TestGlobal_NotFoundIsNotCached(t *testing.T) {
	r, st, c, _ := newTestResolver(Options{})

	got, err := r.Global(testContext(), "missing", 60)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if _, err := c.Get(GlobalKey("missing")); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expected no cache entry for missing chunk, got err=%v", err)
	}

	// A chunk created afterwards is visible on the very next call, with no
	// TTL expiry in between.
	st.chunks["missing"] = &model.Chunk{Key: "missing", Content: "here now"}
	got, err = r.Global(testContext(), "missing", 60)
	if err != nil {
		t.Fatalf("Global after create: %v", err)
	}
	if got != "here now" {
		t.Errorf("got %q, want %q", got, "here now")
	}
}

func TestGlobal_ZeroTTLSkipsCacheWrite(t *testing.T) {
	r, st, c, rd := newTestResolver(Options{})
	st.chunks["banner"] = &model.Chunk{Key: "banner", Content: "hello"}

	got, err := r.Global(testContext(), "banner", 0)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
	if rd.calls != 1 {
		t.Errorf("renderer invoked %d times, want 1", rd.calls)
	}
	if _, err := c.Get(GlobalKey("banner")); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("ttl=0 must not populate the cache, got err=%v", err)
	}

	// An entry written earlier by a longer-TTL caller still serves hits.
	if err := c.Set(GlobalKey("banner"), []byte("from cache"), time.Minute); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}
	got, err = r.Global(testContext(), "banner", 0)
	if err != nil {
		t.Fatalf("Global (seeded): %v", err)
	}
	if got != "from cache" {
		t.Errorf("got %q, want shared cache entry", got)
	}
}

func TestGlobal_MissingRequestIsConfigurationError(t *testing.T) {
	r, st, _, _ := newTestResolver(Options{})
	st.chunks["footer"] = &model.Chunk{Key: "footer", Content: "(c) Acme"}

	rctx := render.NewContext(context.Background()) // no request attached
	_, err := r.Global(rctx, "footer", 60)
	if !errors.Is(err, ErrNoRequest) {
		t.Fatalf("got err=%v, want ErrNoRequest", err)
	}
}

func TestGlobal_CacheEmptyResults(t *testing.T) {
	r, _, c, _ := newTestResolver(Options{CacheEmptyResults: true})

	got, err := r.Global(testContext(), "missing", 60)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	cached, err := c.Get(GlobalKey("missing"))
	if err != nil {
		t.Fatalf("expected cached empty result, got err=%v", err)
	}
	if len(cached) != 0 {
		t.Errorf("cached %q, want empty", cached)
	}
}

func TestObject_InlineWinsOverDefault(t *testing.T) {
	r, st, _, _ := newTestResolver(Options{})
	st.chunks["byline_default"] = &model.Chunk{Key: "byline_default", Content: "Staff"}
	st.inline[inlineKey(model.OwnerRef{Type: "article", ID: "42"}, "byline")] = &model.InlineChunk{
		ID: "ic-1", OwnerType: "article", OwnerID: "42", Key: "byline", Content: "By J. Doe",
	}

	owner := r.Entity("article", "42")
	got, err := r.Object(testContext(), owner, "byline", 0, "byline_default")
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if got != "By J. Doe" {
		t.Errorf("got %q, want inline content", got)
	}
}

func TestObject_DefaultFallback(t *testing.T) {
	r, st, c, _ := newTestResolver(Options{})
	st.chunks["byline_default"] = &model.Chunk{Key: "byline_default", Content: "Staff"}

	owner := r.Entity("article", "42")
	got, err := r.Object(testContext(), owner, "byline", 30, "byline_default")
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if got != "Staff" {
		t.Errorf("got %q, want default content", got)
	}

	// The fallback result is cached under the owner-derived key.
	cached, err := c.Get(owner.ChunkCacheKey("byline"))
	if err != nil {
		t.Fatalf("cache entry missing: %v", err)
	}
	if string(cached) != "Staff" {
		t.Errorf("cached %q, want %q", cached, "Staff")
	}
}

func TestObject_NeitherResolves(t *testing.T) {
	r, st, c, _ := newTestResolver(Options{})

	owner := r.Entity("article", "42")
	got, err := r.Object(testContext(), owner, "byline", 60, "byline_default")
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if _, err := c.Get(owner.ChunkCacheKey("byline")); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("miss must not populate the cache, got err=%v", err)
	}

	// Creating the inline chunk makes the next call succeed immediately.
	st.inline[inlineKey(model.OwnerRef{Type: "article", ID: "42"}, "byline")] = &model.InlineChunk{
		ID: "ic-1", OwnerType: "article", OwnerID: "42", Key: "byline", Content: "By J. Doe",
	}
	got, err = r.Object(testContext(), owner, "byline", 60, "byline_default")
	if err != nil {
		t.Fatalf("Object after create: %v", err)
	}
	if got != "By J. Doe" {
		t.Errorf("got %q, want %q", got, "By J. Doe")
	}
}

func TestObject_NoDefaultKey(t *testing.T) {
	r, _, _, rd := newTestResolver(Options{})

	owner := r.Entity("article", "42")
	got, err := r.Object(testContext(), owner, "byline", 60, "")
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if rd.calls != 0 {
		t.Errorf("renderer invoked %d times, want 0", rd.calls)
	}
}

func TestObject_NilOwnerYieldsEmpty(t *testing.T) {
	r, _, _, _ := newTestResolver(Options{})

	got, err := r.Object(testContext(), nil, "byline", 60, "byline_default")
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestObject_CachedSecondCall(t *testing.T) {
	r, st, _, rd := newTestResolver(Options{})
	st.inline[inlineKey(model.OwnerRef{Type: "page", ID: "home"}, "hero")] = &model.InlineChunk{
		ID: "ic-2", OwnerType: "page", OwnerID: "home", Key: "hero", Content: "Welcome",
	}

	owner := r.Entity("page", "home")
	for i := 0; i < 2; i++ {
		got, err := r.Object(testContext(), owner, "hero", 120, "")
		if err != nil {
			t.Fatalf("Object call %d: %v", i, err)
		}
		if got != "Welcome" {
			t.Errorf("call %d: got %q, want %q", i, got, "Welcome")
		}
	}
	if st.getInlineCalls != 1 {
		t.Errorf("store consulted %d times, want 1", st.getInlineCalls)
	}
	if rd.calls != 1 {
		t.Errorf("renderer invoked %d times, want 1", rd.calls)
	}
}

func TestObject_MissingRequestIsConfigurationError(t *testing.T) {
	r, st, _, _ := newTestResolver(Options{})
	st.inline[inlineKey(model.OwnerRef{Type: "article", ID: "42"}, "byline")] = &model.InlineChunk{
		ID: "ic-1", OwnerType: "article", OwnerID: "42", Key: "byline", Content: "By J. Doe",
	}

	rctx := render.NewContext(context.Background())
	_, err := r.Object(rctx, r.Entity("article", "42"), "byline", 60, "")
	if !errors.Is(err, ErrNoRequest) {
		t.Fatalf("got err=%v, want ErrNoRequest", err)
	}
}

func TestChunksFor_RendersAllInlineChunks(t *testing.T) {
	r, st, c, _ := newTestResolver(Options{})
	owner := model.OwnerRef{Type: "article", ID: "42"}
	st.inline[inlineKey(owner, "byline")] = &model.InlineChunk{
		ID: "ic-1", OwnerType: "article", OwnerID: "42", Key: "byline", Content: "By J. Doe",
	}
	st.inline[inlineKey(owner, "teaser")] = &model.InlineChunk{
		ID: "ic-2", OwnerType: "article", OwnerID: "42", Key: "teaser", Content: "Read more",
	}

	got, err := r.ChunksFor(testContext(), owner)
	if err != nil {
		t.Fatalf("ChunksFor: %v", err)
	}
	want := map[string]string{"byline": "By J. Doe", "teaser": "Read more"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("got[%q] = %q, want %q", k, got[k], v)
		}
	}

	// Aggregation never touches the result cache.
	if _, err := c.Get(OwnerKey(owner, "byline")); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("aggregation must not populate the cache, got err=%v", err)
	}
}

func TestChunksFor_MissingRequestIsConfigurationError(t *testing.T) {
	r, _, _, _ := newTestResolver(Options{})

	rctx := render.NewContext(context.Background())
	_, err := r.ChunksFor(rctx, model.OwnerRef{Type: "article", ID: "42"})
	if !errors.Is(err, ErrNoRequest) {
		t.Fatalf("got err=%v, want ErrNoRequest", err)
	}
}

func TestChunksFor_RenderFailureDegradesToEmpty(t *testing.T) {
	r, st, _, rd := newTestResolver(Options{})
	rd.err = errors.New("bad template")
	owner := model.OwnerRef{Type: "article", ID: "42"}
	st.inline[inlineKey(owner, "byline")] = &model.InlineChunk{
		ID: "ic-1", OwnerType: "article", OwnerID: "42", Key: "byline", Content: "{{broken",
	}

	got, err := r.ChunksFor(testContext(), owner)
	if err != nil {
		t.Fatalf("ChunksFor: %v", err)
	}
	if v, ok := got["byline"]; !ok || v != "" {
		t.Errorf("got[%q] = %q (present=%v), want empty string present", "byline", v, ok)
	}
}

func TestRenderFailure_NotCached(t *testing.T) {
	r, st, c, rd := newTestResolver(Options{})
	rd.err = errors.New("bad template")
	st.chunks["footer"] = &model.Chunk{Key: "footer", Content: "{{broken"}

	got, err := r.Global(testContext(), "footer", 60)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if _, err := c.Get(GlobalKey("footer")); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("failed render must not be cached, got err=%v", err)
	}
}
