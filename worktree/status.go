// Package worktree reconciles a repository's HEAD tree, index and
// filesystem into a per-path status result, the way `git status` does,
// using stat-shortcut and content-hash caching to avoid re-reading
// unchanged files.
package worktree

import (
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/brillcp/SwiftGit-sub000/plumbing/cache"
	"github.com/brillcp/SwiftGit-sub000/plumbing/format/index"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

// ChangeType classifies how a single side (staged or unstaged) of a path
// differs.
type ChangeType int8

const (
	Added ChangeType = iota
	Modified
	Deleted
	Renamed
	Untracked
	Conflicted
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Untracked:
		return "untracked"
	case Conflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// WorkingTreeFile is one path's status: at least one of Staged/Unstaged is
// set whenever the path appears in a status result at all.
type WorkingTreeFile struct {
	Path     string
	Staged   *ChangeType
	Unstaged *ChangeType
}

// FileIdentity is the hash-cache key for a working tree file: a stat
// fingerprint cheap enough to compare without reading file content.
type FileIdentity struct {
	Dev     uint64
	Ino     uint64
	Size    int64
	ModNsec int64
}

// HashCache memoizes blob hashes by FileIdentity, so unmodified files are
// never re-read across status calls.
type HashCache interface {
	Get(id FileIdentity) (hash.ID, bool)
	Put(id FileIdentity, h hash.ID)
}

// memHashCache is a trivial unbounded map-backed HashCache, adequate for a
// single repository's working tree; callers wanting eviction and the
// shared cache's KeyFileHash accounting use NewSharedHashCache instead.
type memHashCache struct {
	m map[FileIdentity]hash.ID
}

// NewMemHashCache returns a HashCache with no eviction policy.
func NewMemHashCache() HashCache {
	return &memHashCache{m: make(map[FileIdentity]hash.ID)}
}

func (c *memHashCache) Get(id FileIdentity) (hash.ID, bool) {
	h, ok := c.m[id]
	return h, ok
}

func (c *memHashCache) Put(id FileIdentity, h hash.ID) {
	c.m[id] = h
}

// sharedHashCache adapts the repository-wide bounded cache.Cache to
// HashCache, storing each file's hash under the KeyFileHash kind so it
// competes for eviction with everything else the repository memoizes
// instead of growing unbounded for the lifetime of the process.
type sharedHashCache struct {
	c *cache.Cache
}

// NewSharedHashCache builds a HashCache backed by c.
func NewSharedHashCache(c *cache.Cache) HashCache {
	return &sharedHashCache{c: c}
}

func (id FileIdentity) cacheKey() string {
	return fmt.Sprintf("%d:%d:%d:%d", id.Dev, id.Ino, id.Size, id.ModNsec)
}

func (h *sharedHashCache) Get(id FileIdentity) (hash.ID, bool) {
	v, ok := h.c.Get(cache.FileHashKey(id.cacheKey()))
	if !ok {
		return hash.ID{}, false
	}
	return v.(hash.ID), true
}

func (h *sharedHashCache) Put(id FileIdentity, hv hash.ID) {
	h.c.Put(cache.FileHashKey(id.cacheKey()), hv, hash.Size+32)
}

// Engine computes working tree status over a single billy.Filesystem root.
type Engine struct {
	fs        billy.Filesystem
	hashCache HashCache
}

// NewEngine builds an Engine rooted at fs. If hashCache is nil, an
// unbounded in-memory cache is used.
func NewEngine(fs billy.Filesystem, hashCache HashCache) *Engine {
	if hashCache == nil {
		hashCache = NewMemHashCache()
	}
	return &Engine{fs: fs, hashCache: hashCache}
}

// ComputeStatus reconciles head (a flattened path -> blob hash map for the
// HEAD commit's tree, or nil for an unborn branch) with idx (the decoded
// staging area) and the working tree.
func (e *Engine) ComputeStatus(head map[string]hash.ID, idx *index.Index) ([]WorkingTreeFile, error) {
	staged := computeStaged(head, idx)

	conflicted := make(map[string]bool, len(idx.ConflictedPaths))
	for _, p := range idx.ConflictedPaths {
		conflicted[p] = true
	}

	unstaged, err := e.computeUnstaged(idx, conflicted)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]bool, len(staged)+len(unstaged))
	for p := range staged {
		paths[p] = true
	}
	for p := range unstaged {
		paths[p] = true
	}

	out := make([]WorkingTreeFile, 0, len(paths))
	for p := range paths {
		wf := WorkingTreeFile{Path: p}
		if ct, ok := staged[p]; ok {
			c := ct
			wf.Staged = &c
		}
		if ct, ok := unstaged[p]; ok {
			c := ct
			wf.Unstaged = &c
		}
		out = append(out, wf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func computeStaged(head map[string]hash.ID, idx *index.Index) map[string]ChangeType {
	staged := make(map[string]ChangeType)
	for path, entry := range idx.ByPath {
		if headID, ok := head[path]; ok {
			if headID != entry.ID {
				staged[path] = Modified
			}
			continue
		}
		staged[path] = Added
	}
	for path := range head {
		if _, ok := idx.ByPath[path]; !ok {
			staged[path] = Deleted
		}
	}
	return staged
}

func (e *Engine) computeUnstaged(idx *index.Index, conflicted map[string]bool) (map[string]ChangeType, error) {
	unstaged := make(map[string]ChangeType)
	indexedPaths := make(map[string]bool, len(idx.ByPath))
	for p := range idx.ByPath {
		indexedPaths[p] = true
	}

	for p, entry := range idx.ByPath {
		if conflicted[p] {
			continue
		}
		wh, exists, err := e.hashWorkingFile(p, entry)
		if err != nil {
			return nil, err
		}
		switch {
		case !exists:
			unstaged[p] = Deleted
		case wh != entry.ID:
			unstaged[p] = Modified
		}
	}

	untracked, err := e.scanUntracked(indexedPaths)
	if err != nil {
		return nil, err
	}
	for _, p := range untracked {
		unstaged[p] = Untracked
	}

	for p := range conflicted {
		unstaged[p] = Conflicted
	}
	return unstaged, nil
}

// hashWorkingFile resolves path's current blob hash. exists is false when
// the working tree file is gone. The stat shortcut reuses entry's recorded
// sha1 when size matches and mtimes agree to within 1ms; otherwise the
// FileIdentity hash cache is consulted before falling back to a streaming
// rehash.
func (e *Engine) hashWorkingFile(p string, entry *index.Entry) (hash.ID, bool, error) {
	info, err := e.fs.Stat(p)
	if err != nil {
		if isNotExist(err) {
			return hash.ID{}, false, nil
		}
		return hash.ID{}, false, err
	}
	if info.IsDir() {
		return hash.ID{}, false, nil
	}

	if info.Size() == int64(entry.Size) {
		deltaNs := info.ModTime().Sub(entry.ModifiedAt).Nanoseconds()
		if deltaNs < 0 {
			deltaNs = -deltaNs
		}
		if deltaNs < int64(1e6) {
			return entry.ID, true, nil
		}
	}

	dev, ino, _ := fillIdentity(info.Sys())
	identity := FileIdentity{Dev: dev, Ino: ino, Size: info.Size(), ModNsec: info.ModTime().UnixNano()}
	if cached, ok := e.hashCache.Get(identity); ok {
		return cached, true, nil
	}

	h, err := e.streamBlobHash(p, info.Size())
	if err != nil {
		return hash.ID{}, false, err
	}
	e.hashCache.Put(identity, h)
	return h, true, nil
}

const hashChunkSize = 64 * 1024

// streamBlobHash computes sha1("blob <size>\0" + content) in 64KiB chunks
// without loading the whole file into memory.
func (e *Engine) streamBlobHash(p string, size int64) (hash.ID, error) {
	f, err := e.fs.Open(p)
	if err != nil {
		return hash.ID{}, err
	}
	defer f.Close()

	d := hash.New(crypto.SHA1)
	d.Write([]byte("blob "))
	d.Write([]byte(strconv.FormatInt(size, 10)))
	d.Write([]byte{0})

	buf := make([]byte, hashChunkSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			d.Write(buf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return hash.ID{}, rerr
		}
	}

	sum := d.Sum(nil)
	return hash.FromBytes(sum)
}

// scanUntracked recursively walks the working tree, skipping the
// repo-metadata directory and any directory recorded as a single (gitlink)
// index entry, returning every file path not already indexed.
func (e *Engine) scanUntracked(indexedPaths map[string]bool) ([]string, error) {
	var out []string

	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := e.fs.ReadDir(dir)
		if err != nil {
			if isNotExist(err) {
				return nil
			}
			return err
		}
		for _, entry := range entries {
			name := entry.Name()
			if dir == "" && name == ".git" {
				continue
			}
			full := path.Join(dir, name)
			if entry.IsDir() {
				if indexedPaths[full] {
					continue
				}
				if err := walk(full); err != nil {
					return err
				}
				continue
			}
			if indexedPaths[full] {
				continue
			}
			out = append(out, full)
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}
	return out, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "does not exist")
}
