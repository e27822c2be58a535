// Package resolve implements the chunk resolution algorithm: given a chunk
// key, optionally scoped to an owning entity, find the most specific matching
// content, render it, and cache the rendered text under a derived key.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chunkworks/chunkd/internal/cache"
	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/render"
	"github.com/chunkworks/chunkd/internal/store"
)

// ErrNoRequest is returned when a render would occur but the render context
// carries no ambient request data. This is a configuration error in the
// hosting environment and always propagates, unlike missing chunks.
var ErrNoRequest = errors.New("resolve: render context has no request")

// Options tunes resolver policy.
type Options struct {
	// CacheEmptyResults caches not-found resolutions as empty strings.
	// Off by default: an uncached miss means a chunk created later becomes
	// visible on the next call, without waiting for a TTL to expire.
	CacheEmptyResults bool
}

// Resolver resolves chunk keys to rendered text, reading through the result
// cache. A single Resolver is shared by all requests.
type Resolver struct {
	store    store.Store
	cache    cache.Cache
	renderer render.Renderer
	logger   *slog.Logger
	opts     Options
}

// New creates a Resolver over the given store, cache, and renderer.
func New(st store.Store, c cache.Cache, r render.Renderer, logger *slog.Logger, opts Options) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: st, cache: c, renderer: r, logger: logger, opts: opts}
}

// Global resolves a global chunk by key. ttl is the cache lifetime in
// seconds; zero renders without caching the result. A missing chunk yields
// an empty string, never an error.
func (r *Resolver) Global(rctx *render.Context, key string, ttl int) (string, error) {
	cacheKey := GlobalKey(key)
	if text, ok := r.cacheGet(cacheKey); ok {
		return text, nil
	}

	chunk, err := r.store.GetChunk(rctx.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		if r.opts.CacheEmptyResults {
			r.cacheSet(cacheKey, "", ttl)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get chunk %q: %w", key, err)
	}

	return r.renderAndCache(rctx, chunk.Content, cacheKey, ttl)
}

// Object resolves a chunk scoped to owner, preferring the owner's inline
// chunk and falling back to the global chunk named by defaultKey when one is
// given. A nil owner means the caller could not resolve its owner reference;
// per the recovery policy that yields an empty string silently.
func (r *Resolver) Object(rctx *render.Context, owner Owner, key string, ttl int, defaultKey string) (string, error) {
	if owner == nil {
		return "", nil
	}
	cacheKey := owner.ChunkCacheKey(key)
	if text, ok := r.cacheGet(cacheKey); ok {
		return text, nil
	}

	var content string
	ic, err := r.store.GetInlineChunk(rctx.Context(), owner.Ref(), key)
	switch {
	case err == nil:
		content = ic.Content
	case errors.Is(err, store.ErrNotFound):
		if defaultKey == "" {
			if r.opts.CacheEmptyResults {
				r.cacheSet(cacheKey, "", ttl)
			}
			return "", nil
		}
		chunk, err := r.store.GetChunk(rctx.Context(), defaultKey)
		if errors.Is(err, store.ErrNotFound) {
			if r.opts.CacheEmptyResults {
				r.cacheSet(cacheKey, "", ttl)
			}
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("get default chunk %q: %w", defaultKey, err)
		}
		content = chunk.Content
	default:
		return "", fmt.Errorf("get inline chunk %s/%s: %w", owner.Ref(), key, err)
	}

	return r.renderAndCache(rctx, content, cacheKey, ttl)
}

// ChunksFor renders every inline chunk attached to owner and returns the
// key-to-text mapping. This backs the bulk binding path and the aggregate
// API; it never touches the result cache.
func (r *Resolver) ChunksFor(rctx *render.Context, owner model.OwnerRef) (map[string]string, error) {
	if !rctx.HasRequest() {
		return nil, ErrNoRequest
	}

	chunks, err := r.store.ListInlineChunks(rctx.Context(), owner)
	if err != nil {
		return nil, fmt.Errorf("list inline chunks for %s: %w", owner, err)
	}

	out := make(map[string]string, len(chunks))
	for _, ic := range chunks {
		text, err := r.renderer.Render(rctx, ic.Content)
		if err != nil {
			r.logger.Warn("inline chunk render failed", "owner", owner.String(), "key", ic.Key, "error", err)
			text = ""
		}
		out[ic.Key] = text
	}
	return out, nil
}

// renderAndCache is the shared tail of the resolution paths: enforce the
// request requirement, render, and populate the cache.
func (r *Resolver) renderAndCache(rctx *render.Context, content, cacheKey string, ttl int) (string, error) {
	if !rctx.HasRequest() {
		return "", ErrNoRequest
	}

	text, err := r.renderer.Render(rctx, content)
	if err != nil {
		// Malformed chunk content must not break the surrounding page.
		// Degrade to empty output without caching, so a fixed chunk is
		// picked up immediately.
		r.logger.Warn("chunk render failed", "cache_key", cacheKey, "error", err)
		return "", nil
	}

	r.cacheSet(cacheKey, text, ttl)
	return text, nil
}

// cacheGet reads through the result cache. Read failures degrade to a miss.
func (r *Resolver) cacheGet(key string) (string, bool) {
	val, err := r.cache.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, cache.ErrExpired) {
			r.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return "", false
	}
	return string(val), true
}

// cacheSet stores value for ttl seconds. A ttl of zero means "expire
// immediately", so the write is skipped entirely; entries written earlier
// by callers with a longer ttl keep serving hits. The cache backends treat
// ttl <= 0 as "never expire", which is why the skip lives here.
func (r *Resolver) cacheSet(key, value string, ttl int) {
	if ttl <= 0 {
		return
	}
	if err := r.cache.Set(key, []byte(value), time.Duration(ttl)*time.Second); err != nil {
		r.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
