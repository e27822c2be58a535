// Package invalidate evicts cached renders when chunk content changes.
// Eviction is best-effort: the resolver already bounds staleness by TTL,
// eager deletion only tightens the window.
package invalidate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chunkworks/chunkd/internal/cache"
	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/resolve"
)

// Handler subscribes to chunk change events and deletes the affected cache
// entries. Global chunk events evict the global derivation; inline chunk
// events evict the conventional owner derivation.
type Handler struct {
	sub    events.Subscriber
	cache  cache.Cache
	logger *slog.Logger

	mu      sync.Mutex
	cancels []func()
	wg      sync.WaitGroup
}

// New creates a Handler reading from sub and evicting from c.
func New(sub events.Subscriber, c cache.Cache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sub: sub, cache: c, logger: logger}
}

// Start subscribes to every chunk topic and begins evicting in background
// goroutines. Call Stop to unsubscribe and wait for them to drain.
func (h *Handler) Start() error {
	topics := []string{
		events.TopicChunkCreated,
		events.TopicChunkUpdated,
		events.TopicChunkDeleted,
		events.TopicInlineCreated,
		events.TopicInlineUpdated,
		events.TopicInlineDeleted,
	}
	for _, topic := range topics {
		ch, cancel, err := h.sub.Subscribe(topic)
		if err != nil {
			h.Stop()
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		h.mu.Lock()
		h.cancels = append(h.cancels, cancel)
		h.mu.Unlock()

		h.wg.Add(1)
		go func(topic string, ch <-chan []byte) {
			defer h.wg.Done()
			for payload := range ch {
				h.handle(topic, payload)
			}
		}(topic, ch)
	}
	return nil
}

// Stop unsubscribes from all topics and waits for in-flight evictions.
func (h *Handler) Stop() {
	h.mu.Lock()
	cancels := h.cancels
	h.cancels = nil
	h.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	h.wg.Wait()
}

// handle decodes one event payload and evicts its cache key.
func (h *Handler) handle(topic string, payload []byte) {
	key, ok := cacheKeyFor(topic, payload)
	if !ok {
		h.logger.Warn("unrecognized invalidation payload", "topic", topic)
		return
	}
	if err := h.cache.Delete(key); err != nil {
		h.logger.Warn("cache eviction failed", "topic", topic, "key", key, "error", err)
		return
	}
	h.logger.Debug("evicted cached render", "topic", topic, "key", key)
}

// cacheKeyFor derives the cache key affected by an event payload.
func cacheKeyFor(topic string, payload []byte) (string, bool) {
	switch topic {
	case events.TopicChunkCreated, events.TopicChunkUpdated:
		var ev events.ChunkCreated // ChunkUpdated has the same shape
		if err := json.Unmarshal(payload, &ev); err != nil || ev.Chunk == nil {
			return "", false
		}
		return resolve.GlobalKey(ev.Chunk.Key), true
	case events.TopicChunkDeleted:
		var ev events.ChunkDeleted
		if err := json.Unmarshal(payload, &ev); err != nil || ev.Key == "" {
			return "", false
		}
		return resolve.GlobalKey(ev.Key), true
	case events.TopicInlineCreated, events.TopicInlineUpdated:
		var ev events.InlineCreated // InlineUpdated has the same shape
		if err := json.Unmarshal(payload, &ev); err != nil || ev.Chunk == nil {
			return "", false
		}
		owner := model.OwnerRef{Type: ev.Chunk.OwnerType, ID: ev.Chunk.OwnerID}
		return resolve.OwnerKey(owner, ev.Chunk.Key), true
	case events.TopicInlineDeleted:
		var ev events.InlineDeleted
		if err := json.Unmarshal(payload, &ev); err != nil || ev.Key == "" {
			return "", false
		}
		return resolve.OwnerKey(ev.Owner, ev.Key), true
	}
	return "", false
}
