// Package index decodes Git's binary staging-area file (".git/index",
// DIRC signature), versions 2 through 4.
package index

import (
	"time"

	"github.com/brillcp/SwiftGit-sub000/plumbing/filemode"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

// Entry is one staged path: its stat metadata as last recorded by a
// checkout or add, and the blob it points at.
type Entry struct {
	Name string

	CreatedAt  time.Time
	ModifiedAt time.Time
	Dev        uint32
	Inode      uint32
	Mode       filemode.FileMode
	UID        uint32
	GID        uint32
	Size       uint32
	ID         hash.ID

	// Stage is 0 for a normally staged entry, and 1/2/3 (ours/theirs/base)
	// for one side of an unresolved merge conflict.
	Stage uint8
}

// Index is a fully decoded staging area: its entries in on-disk order,
// keyed for lookup, with any duplicate paths recorded as conflicts
// instead of rejected outright.
type Index struct {
	Version uint32
	Entries []*Entry

	ByPath          map[string]*Entry
	ConflictedPaths []string

	// CacheTree holds the opportunistically-decoded TREE extension, if
	// present. Nothing in this package or its callers relies on it; it
	// exists only because the decoder already walks past it.
	CacheTree []CacheTreeEntry
}

// EntryByPath returns the entry for path, or nil if none exists.
func (idx *Index) EntryByPath(path string) *Entry {
	return idx.ByPath[path]
}

// IsConflicted reports whether path has more than one entry (merge
// conflict), rather than failing to load the index outright.
func (idx *Index) IsConflicted(path string) bool {
	for _, p := range idx.ConflictedPaths {
		if p == path {
			return true
		}
	}
	return false
}
