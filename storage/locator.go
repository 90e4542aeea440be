// Package storage locates Git objects within a repository's .git
// directory, preferring loose objects over packed ones, and materializes
// them via the loose/pack decoders.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/brillcp/SwiftGit-sub000/plumbing/cache"
	"github.com/brillcp/SwiftGit-sub000/plumbing/format/idxfile"
	"github.com/brillcp/SwiftGit-sub000/plumbing/format/packfile"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
)

// ErrObjectNotFound is returned when no loose file and no loaded pack
// contains the requested object id.
var ErrObjectNotFound = errors.New("storage: object not found")

// Location describes where an object's bytes were found.
type Location struct {
	Loose bool
	// Path is the loose object's path, set only when Loose is true.
	Path string
	// PackPath and Offset locate the object within a packfile, set only
	// when Loose is false.
	PackPath string
	Offset   int64
}

type packEntry struct {
	path   string
	idx    *idxfile.Index
	reader *packfile.Reader
	file   billy.File
}

// Locator is the unified view over loose and packed objects for one
// repository. It is not safe for concurrent use; callers serialize access
// (normally via the repository facade's single logical queue).
type Locator struct {
	fs     billy.Filesystem
	gitDir string
	cache  *cache.Cache

	mu           sync.Mutex
	looseScanned bool
	loose        map[hash.ID]string
	packs        []*packEntry
	packsLoaded  bool
}

// NewLocator builds a Locator rooted at gitDir (typically ".git") on fs.
// If objCache is nil, a default-bounded cache is used.
func NewLocator(fs billy.Filesystem, gitDir string, objCache *cache.Cache) *Locator {
	if objCache == nil {
		objCache = cache.NewDefault()
	}
	return &Locator{fs: fs, gitDir: gitDir, cache: objCache}
}

// Exists reports whether id resolves to a loose or packed object.
func (l *Locator) Exists(id hash.ID) (bool, error) {
	loc, err := l.Locate(id)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}
	return loc != nil, nil
}

// Locate finds id without reading or decoding its content. A hash
// present both loose and packed resolves loose, matching how partial-fetch
// and post-GC repositories behave.
func (l *Locator) Locate(id hash.ID) (*Location, error) {
	if v, ok := l.cache.Get(cache.ObjectLocationKey(id)); ok {
		return v.(*Location), nil
	}

	if err := l.ensureLooseScanned(); err != nil {
		return nil, err
	}

	if p, ok := l.loose[id]; ok {
		loc := &Location{Loose: true, Path: p}
		l.cache.Put(cache.ObjectLocationKey(id), loc, cache.FileSize(len(p))+16)
		return loc, nil
	}

	if err := l.ensurePacksLoaded(); err != nil {
		return nil, err
	}
	for _, p := range l.packs {
		offset, ok, err := p.idx.FindOffset(id)
		if err != nil {
			return nil, fmt.Errorf("storage: %s: %w", p.path, err)
		}
		if ok {
			loc := &Location{PackPath: p.path, Offset: offset}
			l.cache.Put(cache.ObjectLocationKey(id), loc, cache.FileSize(len(p.path))+16)
			return loc, nil
		}
	}

	return nil, ErrObjectNotFound
}

// Stat reports whether id is loose, and an on-disk size: the compressed
// file's size for a loose object, or the size of the whole pack file for a
// packed one (the object's own share of the pack is not computed).
func (l *Locator) Stat(id hash.ID) (loose bool, size int64, err error) {
	loc, err := l.Locate(id)
	if err != nil {
		return false, 0, err
	}
	if loc.Loose {
		info, err := l.fs.Stat(loc.Path)
		if err != nil {
			return false, 0, err
		}
		return true, info.Size(), nil
	}
	info, err := l.fs.Stat(loc.PackPath)
	if err != nil {
		return false, 0, err
	}
	return false, info.Size(), nil
}

// Object locates, decodes and caches id, returning the fully parsed
// object (with any delta chain already resolved for packed objects).
func (l *Locator) Object(id hash.ID) (*object.Object, error) {
	if obj, ok := l.cache.GetObject(id); ok {
		return obj, nil
	}

	loc, err := l.Locate(id)
	if err != nil {
		return nil, err
	}

	var obj *object.Object
	if loc.Loose {
		raw, err := l.readFile(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("storage: reading loose object %s: %w", id, err)
		}
		obj, err = object.DecodeLoose(id, raw)
		if err != nil {
			return nil, err
		}
	} else {
		p, err := l.packByPath(loc.PackPath)
		if err != nil {
			return nil, err
		}
		obj, err = p.reader.Object(id, loc.Offset)
		if err != nil {
			return nil, err
		}
	}

	l.cache.PutObject(obj)
	return obj, nil
}

func (l *Locator) packByPath(p string) (*packEntry, error) {
	for _, e := range l.packs {
		if e.path == p {
			return e, nil
		}
	}
	return nil, fmt.Errorf("storage: pack %s not loaded", p)
}

// ensureLooseScanned performs the one-time directory walk of objects/,
// populating a hash -> path map so repeat lookups are O(1).
func (l *Locator) ensureLooseScanned() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.looseScanned {
		return nil
	}

	l.loose = make(map[hash.ID]string)
	objectsDir := l.join(l.gitDir, "objects")

	shards, err := l.fs.ReadDir(objectsDir)
	if err != nil {
		if isNotExist(err) {
			l.looseScanned = true
			return nil
		}
		return fmt.Errorf("storage: listing %s: %w", objectsDir, err)
	}

	for _, shard := range shards {
		name := shard.Name()
		if !shard.IsDir() || len(name) != 2 || !isHex(name) {
			continue
		}
		shardDir := l.join(objectsDir, name)
		files, err := l.fs.ReadDir(shardDir)
		if err != nil {
			return fmt.Errorf("storage: listing %s: %w", shardDir, err)
		}
		for _, f := range files {
			if f.IsDir() || len(f.Name()) != 38 || !isHex(f.Name()) {
				continue
			}
			id, err := hash.FromHex(strings.ToLower(name + f.Name()))
			if err != nil {
				continue
			}
			l.loose[id] = l.join(shardDir, f.Name())
		}
	}

	l.looseScanned = true
	return nil
}

// ensurePacksLoaded opens every objects/pack/pack-*.idx file found, once.
func (l *Locator) ensurePacksLoaded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.packsLoaded {
		return nil
	}

	packDir := l.join(l.gitDir, "objects", "pack")
	entries, err := l.fs.ReadDir(packDir)
	if err != nil {
		if isNotExist(err) {
			l.packsLoaded = true
			return nil
		}
		return fmt.Errorf("storage: listing %s: %w", packDir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".idx") {
			continue
		}
		idxPath := l.join(packDir, e.Name())
		packPath := strings.TrimSuffix(idxPath, ".idx") + ".pack"

		idxFile, err := l.fs.Open(idxPath)
		if err != nil {
			return fmt.Errorf("storage: opening %s: %w", idxPath, err)
		}
		info, err := l.fs.Stat(idxPath)
		if err != nil {
			idxFile.Close()
			return fmt.Errorf("storage: stat %s: %w", idxPath, err)
		}

		idx, err := idxfile.Open(idxFile, info.Size())
		if err != nil {
			idxFile.Close()
			return fmt.Errorf("storage: parsing %s: %w", idxPath, err)
		}

		packFile, err := l.fs.Open(packPath)
		if err != nil {
			idxFile.Close()
			return fmt.Errorf("storage: opening %s: %w", packPath, err)
		}

		l.packs = append(l.packs, &packEntry{
			path:   packPath,
			idx:    idx,
			reader: packfile.NewReader(packFile, idx),
			file:   packFile,
		})
	}

	l.packsLoaded = true
	return nil
}

func (l *Locator) join(elems ...string) string {
	return path.Join(elems...)
}

func (l *Locator) readFile(name string) ([]byte, error) {
	f, err := l.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "does not exist")
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
