package cache

import (
	"container/list"
	"sync"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
)

// KeyKind distinguishes the different things the repository facade
// memoizes, so a single shared cache can hold commit objects, flattened
// tree-path listings, ref/HEAD reads, index snapshots and working-tree
// file hashes side by side without their keys colliding.
type KeyKind int8

const (
	KeyCommit KeyKind = iota
	KeyTree
	KeyBlob
	KeyTreePaths
	KeyObjectLocation
	KeyRefs
	KeyHead
	KeyIndexSnapshot
	KeyFileHash
)

// Key identifies one cache entry. Hash is used by the object-addressed
// kinds (commit/tree/blob/tree_paths/object_location); Str carries the
// index_snapshot's git-dir and the file_hash kind's encoded FileIdentity.
// Refs and Head are singletons: Kind alone identifies the entry.
type Key struct {
	Kind KeyKind
	Hash hash.ID
	Str  string
}

func CommitKey(id hash.ID) Key         { return Key{Kind: KeyCommit, Hash: id} }
func TreeKey(id hash.ID) Key           { return Key{Kind: KeyTree, Hash: id} }
func BlobKey(id hash.ID) Key           { return Key{Kind: KeyBlob, Hash: id} }
func TreePathsKey(id hash.ID) Key      { return Key{Kind: KeyTreePaths, Hash: id} }
func ObjectLocationKey(id hash.ID) Key { return Key{Kind: KeyObjectLocation, Hash: id} }
func RefsKey() Key                     { return Key{Kind: KeyRefs} }
func HeadKey() Key                     { return Key{Kind: KeyHead} }
func IndexSnapshotKey(gitDir string) Key {
	return Key{Kind: KeyIndexSnapshot, Str: gitDir}
}
func FileHashKey(identity string) Key { return Key{Kind: KeyFileHash, Str: identity} }

type entry struct {
	key   Key
	value any
	size  FileSize
}

// Stats reports cumulative counters, exposed for tests that assert on
// cache behavior rather than just its externally visible effects.
type Stats struct {
	Hits, Misses, Evictions uint64
	Entries                 int
	Bytes                   FileSize
}

// Cache is a single LRU shared by every kind of memoized repository data,
// bounded by both entry count and total byte size: whichever bound is hit
// first triggers eviction from the back of the recency list.
type Cache struct {
	MaxEntries int
	MaxBytes   FileSize

	mu    sync.Mutex
	ll    *list.List
	items map[Key]*list.Element
	bytes FileSize

	hits, misses, evictions uint64
}

// New builds a Cache bounded by maxEntries and maxBytes. A zero value for
// either bound disables it.
func New(maxEntries int, maxBytes FileSize) *Cache {
	return &Cache{
		MaxEntries: maxEntries,
		MaxBytes:   maxBytes,
		ll:         list.New(),
		items:      make(map[Key]*list.Element),
	}
}

// NewDefault builds a Cache sized at DefaultMaxEntries/DefaultMaxBytes.
func NewDefault() *Cache {
	return New(DefaultMaxEntries, DefaultMaxBytes)
}

// Get returns the value stored under key, moving it to the front of the
// recency list and counting a hit or miss.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ee, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.ll.MoveToFront(ee)
	c.hits++
	return ee.Value.(*entry).value, true
}

// Put inserts or refreshes value under key with the given accounted size,
// evicting least-recently-used entries until both MaxEntries and MaxBytes
// are satisfied. A single entry larger than MaxBytes is still admitted
// alone, emptying the rest of the cache; callers that want to reject
// oversized values outright (e.g. large blobs) check before calling Put.
func (c *Cache) Put(key Key, value any, size FileSize) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ee, ok := c.items[key]; ok {
		old := ee.Value.(*entry)
		c.bytes -= old.size
		ee.Value = &entry{key: key, value: value, size: size}
		c.ll.MoveToFront(ee)
		c.bytes += size
	} else {
		ee := c.ll.PushFront(&entry{key: key, value: value, size: size})
		c.items[key] = ee
		c.bytes += size
	}

	for c.ll.Len() > 1 && (c.overByBytes() || c.overByEntries()) {
		c.removeOldest()
	}
}

func (c *Cache) overByBytes() bool {
	return c.MaxBytes > 0 && c.bytes > c.MaxBytes
}

func (c *Cache) overByEntries() bool {
	return c.MaxEntries > 0 && c.ll.Len() > c.MaxEntries
}

// Clear empties the cache without resetting its stats counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll = list.New()
	c.items = make(map[Key]*list.Element)
	c.bytes = 0
}

// Stats reports cumulative hit/miss/eviction counts plus the current
// entry count and byte size, for tests asserting on cache behavior.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.ll.Len(),
		Bytes:     c.bytes,
	}
}

func (c *Cache) removeOldest() {
	ee := c.ll.Back()
	if ee == nil {
		return
	}
	c.ll.Remove(ee)
	e := ee.Value.(*entry)
	delete(c.items, e.key)
	c.bytes -= e.size
	c.evictions++
}

// kindForObject maps a decoded object's type to the cache key kind it is
// stored under.
func kindForObject(obj *object.Object) KeyKind {
	switch obj.Type {
	case object.TreeObject:
		return KeyTree
	case object.BlobObject:
		return KeyBlob
	default:
		return KeyCommit
	}
}

// GetObject looks up a decoded object by id, trying each of the three
// object-kind keys in turn since the caller doesn't know an object's type
// until after it has been decoded once.
func (c *Cache) GetObject(id hash.ID) (*object.Object, bool) {
	for _, kind := range [...]KeyKind{KeyCommit, KeyTree, KeyBlob} {
		if v, ok := c.Get(Key{Kind: kind, Hash: id}); ok {
			return v.(*object.Object), true
		}
	}
	return nil, false
}

// PutObject caches obj under the key kind matching its type. Blobs at or
// above BlobCacheLimit are not cached: their content dominates the byte
// budget for content that is cheap to re-read.
func (c *Cache) PutObject(obj *object.Object) {
	size := FileSize(obj.Size())
	if obj.Type == object.BlobObject && size >= BlobCacheLimit {
		return
	}
	c.Put(Key{Kind: kindForObject(obj), Hash: obj.ID}, obj, size)
}

// treePathsSize estimates the byte cost of a flattened path -> blob id
// map: each entry is roughly its path string plus a fixed hash.ID cost.
func treePathsSize(paths map[string]hash.ID) FileSize {
	var size FileSize
	for p := range paths {
		size += FileSize(len(p)) + 32
	}
	return size
}

// GetTreePaths looks up the flattened file-path listing for tree id.
func (c *Cache) GetTreePaths(id hash.ID) (map[string]hash.ID, bool) {
	v, ok := c.Get(TreePathsKey(id))
	if !ok {
		return nil, false
	}
	return v.(map[string]hash.ID), true
}

// PutTreePaths caches the flattened file-path listing for tree id. Tree
// ids are content-addressed, so a cached listing never goes stale.
func (c *Cache) PutTreePaths(id hash.ID, paths map[string]hash.ID) {
	c.Put(TreePathsKey(id), paths, treePathsSize(paths))
}
