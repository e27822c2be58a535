package resolve

import "github.com/chunkworks/chunkd/internal/model"

// ItemCachePrefix prefixes every derived cache key. Deployments sharing a
// cache between chunkd instances depend on the exact scheme, so it must not
// change without coordinating a cache flush.
const ItemCachePrefix = "chunk_"

// GlobalKey derives the cache key for a global chunk: the prefix followed
// directly by the chunk key.
func GlobalKey(key string) string {
	return ItemCachePrefix + key
}

// OwnerKey derives the cache key for an owner-scoped chunk. Chunk keys,
// owner types, and owner IDs all exclude ':', so joining with colons is
// injective over (owner, key) pairs and never collides with a global key.
func OwnerKey(owner model.OwnerRef, key string) string {
	return ItemCachePrefix + owner.Type + ":" + owner.ID + ":" + key
}
