// Package server exposes the chunkd HTTP JSON API: chunk administration,
// resolution, page rendering, export, and the live event stream.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/page"
	"github.com/chunkworks/chunkd/internal/resolve"
	"github.com/chunkworks/chunkd/internal/store"
)

// ChunkServer wires the store, resolver, and page engine behind the HTTP API.
type ChunkServer struct {
	store     store.Store
	resolver  *resolve.Resolver
	pages     *page.Engine
	publisher events.Publisher
	sseHub    *sseHub
	logger    *slog.Logger
}

// NewChunkServer returns a ChunkServer backed by the given collaborators.
func NewChunkServer(st store.Store, resolver *resolve.Resolver, pages *page.Engine, pub events.Publisher, logger *slog.Logger) *ChunkServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkServer{
		store:     st,
		resolver:  resolver,
		pages:     pages,
		publisher: pub,
		sseHub:    newSSEHub(),
		logger:    logger,
	}
}

// recordAndPublish persists an event to the store, publishes it to NATS, and
// mirrors it onto the SSE stream. All three are best-effort; failures are
// logged but do not block the caller.
func (s *ChunkServer) recordAndPublish(ctx context.Context, topic string, owner model.OwnerRef, key, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "topic", topic, "key", key, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:     topic,
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		Key:       key,
		Actor:     actor,
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("failed to record event", "topic", topic, "key", key, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "key", key, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// inputError indicates invalid user input. The transport layer maps it to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
