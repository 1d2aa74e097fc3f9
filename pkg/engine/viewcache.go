package engine

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/blockvault/blockvault/pkg/version"
)

// viewCacheSize bounds the version metadata cache (spec.md §4.9): a
// repeat "<name>@<selector>" lookup that resolves to the same
// (inode, version_id) pair skips rebuilding the view record.
const viewCacheSize = 4096

type viewKey struct {
	inodeID   uint64
	versionID uint64
}

// viewCache maps (inode, version_id) -> version.View. Entries are
// dropped on eviction or explicit invalidation; nothing here is of
// record, so a miss just costs a rebuild from the chain.
type viewCache struct {
	lru *lru.Cache
}

func newViewCache(size int) *viewCache {
	c, err := lru.New(size)
	if err != nil {
		// Only returns an error for size <= 0, which never happens with
		// the package constant above.
		panic(err)
	}
	return &viewCache{lru: c}
}

func (c *viewCache) get(inodeID, versionID uint64) (version.View, bool) {
	v, ok := c.lru.Get(viewKey{inodeID, versionID})
	if !ok {
		return version.View{}, false
	}
	return v.(version.View), true
}

func (c *viewCache) put(v version.View) {
	c.lru.Add(viewKey{v.InodeID, v.VersionID}, v)
}

func (c *viewCache) invalidate(inodeID, versionID uint64) {
	c.lru.Remove(viewKey{inodeID, versionID})
}

func (c *viewCache) invalidateAll(inodeID uint64, versionIDs []uint64) {
	for _, id := range versionIDs {
		c.invalidate(inodeID, id)
	}
}
