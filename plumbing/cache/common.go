// Package cache provides the repository-wide, two-bound LRU used to
// memoize decoded objects, flattened tree paths, ref/HEAD reads, index
// snapshots and working-tree file hashes, plus a smaller raw-buffer cache
// for the packfile reader's delta resolution.
package cache

// FileSize is a byte count, used for cache capacities and accounting.
type FileSize int64

const (
	Byte FileSize = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
)

// DefaultMaxBytes is the byte bound used by NewDefault.
const DefaultMaxBytes = 200 * MiByte

// DefaultMaxEntries is the entry-count bound used by NewDefault.
const DefaultMaxEntries = 5000

// BlobCacheLimit is the size at or above which a blob is not admitted to the
// cache at all: large file content is cheap to re-read from disk and
// otherwise dominates the byte budget at the expense of everything else
// sharing it.
const BlobCacheLimit = 100 * KiByte

// bufferDefaultMaxSize is the capacity used by NewBufferLRUDefault.
const bufferDefaultMaxSize = 96 * MiByte
