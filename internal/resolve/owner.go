package resolve

import (
	"github.com/chunkworks/chunkd/internal/model"
	"github.com/chunkworks/chunkd/internal/render"
)

// Owner is the capability an owning entity exposes to the resolver: a stable
// reference, an injective cache-key derivation, and bulk aggregation of its
// inline chunks. Custom owner types may override the derivation as long as
// distinct (owner, key) pairs keep mapping to distinct cache keys.
type Owner interface {
	Ref() model.OwnerRef
	ChunkCacheKey(key string) string
	Chunks(rctx *render.Context) (map[string]string, error)
}

// Entity returns the stock Owner for an (ownerType, ownerID) pair, backed by
// this resolver's store and renderer with the conventional key derivation.
func (r *Resolver) Entity(ownerType, ownerID string) Owner {
	return &entity{ref: model.OwnerRef{Type: ownerType, ID: ownerID}, resolver: r}
}

type entity struct {
	ref      model.OwnerRef
	resolver *Resolver
}

// Compile-time check that entity implements Owner.
var _ Owner = (*entity)(nil)

func (e *entity) Ref() model.OwnerRef {
	return e.ref
}

func (e *entity) ChunkCacheKey(key string) string {
	return OwnerKey(e.ref, key)
}

func (e *entity) Chunks(rctx *render.Context) (map[string]string, error) {
	return e.resolver.ChunksFor(rctx, e.ref)
}
