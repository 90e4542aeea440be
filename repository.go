// Package git is the read/mutate facade: it composes the object locator,
// ref reader, index decoder, working-tree status engine and diff engine
// into the query surface a caller actually wants, and delegates mutating
// operations to the external git binary.
package git

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/brillcp/SwiftGit-sub000/diff"
	"github.com/brillcp/SwiftGit-sub000/plumbing/cache"
	"github.com/brillcp/SwiftGit-sub000/plumbing/filemode"
	"github.com/brillcp/SwiftGit-sub000/plumbing/format/index"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
	"github.com/brillcp/SwiftGit-sub000/plumbing/ref"
	"github.com/brillcp/SwiftGit-sub000/storage"
	"github.com/brillcp/SwiftGit-sub000/worktree"
)

// Repository is the single entry point into a local repository's object
// store, reference namespace, staging area and working tree. All access is
// serialized through mu: callers treat a Repository as a single logical
// queue, not a pool of independent readers.
type Repository struct {
	fs      billy.Filesystem
	gitDir  string
	workDir string

	cache   *cache.Cache
	locator *storage.Locator
	refs    *ref.Reader
	engine  *worktree.Engine

	mu            sync.Mutex
	indexCache    *index.Index
	indexCacheErr error
	indexLoaded   bool
}

// Open opens the repository rooted at workDir, whose metadata directory is
// workDir/.git.
func Open(workDir string) (*Repository, error) {
	return OpenFS(osfs.New(workDir), ".git", workDir)
}

// OpenFS opens a repository over an arbitrary billy.Filesystem, primarily
// for tests that substitute memfs. gitDir is relative to fs's root.
func OpenFS(fs billy.Filesystem, gitDir, workDir string) (*Repository, error) {
	if _, err := fs.Stat(gitDir); err != nil {
		return nil, NotARepository
	}

	objCache := cache.NewDefault()
	return &Repository{
		fs:      fs,
		gitDir:  gitDir,
		workDir: workDir,
		cache:   objCache,
		locator: storage.NewLocator(fs, gitDir, objCache),
		refs:    ref.NewReader(fs, gitDir),
		engine:  worktree.NewEngine(fs, worktree.NewSharedHashCache(objCache)),
	}, nil
}

// invalidateIndex drops the cached index snapshot; called after any
// mutation that can change the staging area (stage/unstage/commit/stash).
func (r *Repository) invalidateIndex() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexLoaded = false
	r.indexCache = nil
	r.indexCacheErr = nil
}

func (r *Repository) index() (*index.Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLoaded {
		return r.indexCache, r.indexCacheErr
	}

	content, err := readFile(r.fs, path.Join(r.gitDir, "index"))
	if err != nil {
		r.indexLoaded = true
		if isNotExist(err) {
			r.indexCache = &index.Index{ByPath: map[string]*index.Entry{}}
			return r.indexCache, nil
		}
		r.indexCacheErr = &GitIndexError{Kind: GitIndexFileNotFound}
		return nil, r.indexCacheErr
	}

	idx, err := index.Decode(bytes.NewReader(content))
	r.indexLoaded = true
	if err != nil {
		r.indexCacheErr = err
		return nil, err
	}
	r.indexCache = idx
	return idx, nil
}

// GetHead returns the commit HEAD currently resolves to. ok is false for
// an unborn branch.
func (r *Repository) GetHead() (id hash.ID, ok bool, err error) {
	return r.refs.HEAD()
}

// GetHeadBranch returns the branch name HEAD points to, or ok=false when
// detached or unborn.
func (r *Repository) GetHeadBranch() (string, bool, error) {
	return r.refs.HeadBranch()
}

// Branches groups GetRefs by type for the get_branches query.
type Branches struct {
	Local   []ref.Ref
	Remote  []ref.Ref
	Current string
}

// GetRefs returns every local branch, remote branch and tag.
func (r *Repository) GetRefs() ([]ref.Ref, error) {
	return r.refs.Refs()
}

// GetBranches groups refs into local/remote and reports the current branch.
func (r *Repository) GetBranches() (Branches, error) {
	refs, err := r.refs.Refs()
	if err != nil {
		return Branches{}, err
	}
	var b Branches
	for _, rf := range refs {
		switch rf.Type {
		case ref.LocalBranch:
			b.Local = append(b.Local, rf)
		case ref.RemoteBranch:
			b.Remote = append(b.Remote, rf)
		}
	}
	if name, ok, err := r.refs.HeadBranch(); err == nil && ok {
		b.Current = name
	}
	return b, nil
}

// GetStashes returns the stash reflog, newest first.
func (r *Repository) GetStashes() ([]ref.Stash, error) {
	return r.refs.Stashes()
}

// ObjectExists reports whether id resolves to any loose or packed object.
func (r *Repository) ObjectExists(id hash.ID) (bool, error) {
	return r.locator.Exists(id)
}

// GetCommit loads and parses a commit. A missing commit returns ok=false,
// not an error.
func (r *Repository) GetCommit(id hash.ID) (*object.Commit, bool, error) {
	obj, err := r.locator.Object(id)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if obj.Type != object.CommitObject || obj.Commit == nil {
		return nil, false, &InvalidObjectType{Type: obj.Type.String()}
	}
	return obj.Commit, true, nil
}

// GetTree loads and parses a tree.
func (r *Repository) GetTree(id hash.ID) (*object.Tree, bool, error) {
	obj, err := r.locator.Object(id)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if obj.Type != object.TreeObject || obj.Tree == nil {
		return nil, false, &InvalidObjectType{Type: obj.Type.String()}
	}
	return obj.Tree, true, nil
}

// GetBlob loads a blob.
func (r *Repository) GetBlob(id hash.ID) (*object.Blob, bool, error) {
	obj, err := r.locator.Object(id)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if obj.Type != object.BlobObject || obj.Blob == nil {
		return nil, false, &InvalidObjectType{Type: obj.Type.String()}
	}
	return obj.Blob, true, nil
}

const streamBlobChunkSize = 8 * 1024

// StreamBlob yields id's content in chunks of at most 8 KiB over the
// returned channel, closing it when done or when ctx is cancelled.
func (r *Repository) StreamBlob(ctx context.Context, id hash.ID) (<-chan []byte, <-chan error) {
	out := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		blob, ok, err := r.GetBlob(id)
		if err != nil {
			errc <- err
			return
		}
		if !ok {
			return
		}

		data := blob.Bytes()
		for len(data) > 0 {
			n := streamBlobChunkSize
			if n > len(data) {
				n = len(data)
			}
			chunk := make([]byte, n)
			copy(chunk, data[:n])
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
			data = data[n:]
		}
	}()

	return out, errc
}

// TreeVisitResult controls WalkTree traversal.
type TreeVisitResult int8

const (
	Continue TreeVisitResult = iota
	Stop
)

// TreeVisitor is called for every entry reachable from a walked tree, with
// path set to the entry's full path from the walk root.
type TreeVisitor func(path string, entry object.TreeEntry) TreeVisitResult

const maxTreeDepth = 1024

// WalkTree recursively visits every entry of the tree named by id,
// depth-first, stopping early if visitor returns Stop.
func (r *Repository) WalkTree(id hash.ID, visitor TreeVisitor) error {
	stopped := false
	wrapped := func(p string, e object.TreeEntry) TreeVisitResult {
		if stopped || visitor(p, e) == Stop {
			stopped = true
			return Stop
		}
		return Continue
	}
	return r.walkTree(id, "", 0, wrapped)
}

func (r *Repository) walkTree(id hash.ID, base string, depth int, visitor TreeVisitor) error {
	if depth > maxTreeDepth {
		return &CorruptedRepository{Err: errors.New("tree walk: max depth exceeded at " + base)}
	}
	tree, ok, err := r.GetTree(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	for _, e := range tree.Entries {
		p := e.Name
		if base != "" {
			p = base + "/" + e.Name
		}
		if visitor(p, e) == Stop {
			return nil
		}
		if e.Kind() == filemode.TreeEntry {
			if err := r.walkTree(e.ID, p, depth+1, visitor); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetTreePaths flattens the tree named by id into a path -> blob hash map,
// the input the diff calculator consumes. Only file-ish entries (blob,
// executable, symlink) appear as leaves; subtrees are descended, not
// recorded themselves.
func (r *Repository) GetTreePaths(id hash.ID) (map[string]hash.ID, error) {
	if out, ok := r.cache.GetTreePaths(id); ok {
		return out, nil
	}

	out := make(map[string]hash.ID)
	if err := r.WalkTree(id, func(path string, e object.TreeEntry) TreeVisitResult {
		if e.Mode.IsFile() {
			out[path] = e.ID
		}
		return Continue
	}); err != nil {
		return nil, err
	}

	r.cache.PutTreePaths(id, out)
	return out, nil
}

// GetChangedFiles diffs commitID's tree against its first parent's tree
// (or against nothing, for a root commit).
func (r *Repository) GetChangedFiles(commitID hash.ID) (map[string]diff.ChangedFile, error) {
	commit, ok, err := r.GetCommit(commitID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ObjectNotFound{Hash: commitID.String()}
	}

	current, err := r.GetTreePaths(commit.TreeID)
	if err != nil {
		return nil, err
	}

	var parent map[string]hash.ID
	if len(commit.ParentIDs) > 0 {
		parentCommit, ok, err := r.GetCommit(commit.ParentIDs[0])
		if err != nil {
			return nil, err
		}
		if ok {
			parent, err = r.GetTreePaths(parentCommit.TreeID)
			if err != nil {
				return nil, err
			}
		}
	}

	return diff.ComputeDiff(current, parent), nil
}

// GetFileDiff computes the hunks for path as it changed in commitID versus
// its first parent.
func (r *Repository) GetFileDiff(commitID hash.ID, filePath string) ([]diff.Hunk, error) {
	commit, ok, err := r.GetCommit(commitID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ObjectNotFound{Hash: commitID.String()}
	}

	newContent, err := r.blobAtPath(commit.TreeID, filePath)
	if err != nil {
		return nil, err
	}

	var oldContent string
	if len(commit.ParentIDs) > 0 {
		parentCommit, ok, err := r.GetCommit(commit.ParentIDs[0])
		if err != nil {
			return nil, err
		}
		if ok {
			oldContent, err = r.blobAtPath(parentCommit.TreeID, filePath)
			if err != nil {
				return nil, err
			}
		}
	}

	return diff.GenerateHunks(oldContent, newContent, 3)
}

// GetWorkingFileDiff diffs the index's copy of path against the current
// working tree content (the unstaged diff for a single file).
func (r *Repository) GetWorkingFileDiff(filePath string) ([]diff.Hunk, error) {
	idx, err := r.index()
	if err != nil {
		return nil, err
	}

	var indexed string
	if entry := idx.EntryByPath(filePath); entry != nil {
		if blob, ok, err := r.GetBlob(entry.ID); err == nil && ok {
			indexed = string(blob.Bytes())
		}
	}

	working, err := readFile(r.fs, filePath)
	var workingStr string
	switch {
	case err == nil:
		workingStr = string(working)
	case !isNotExist(err):
		return nil, err
	}

	return diff.GenerateHunks(indexed, workingStr, 3)
}

// GetStagedDiff diffs HEAD's copy of path against the index (the staged
// diff for a single file).
func (r *Repository) GetStagedDiff(filePath string) ([]diff.Hunk, error) {
	idx, err := r.index()
	if err != nil {
		return nil, err
	}

	var indexed string
	if entry := idx.EntryByPath(filePath); entry != nil {
		if blob, ok, err := r.GetBlob(entry.ID); err == nil && ok {
			indexed = string(blob.Bytes())
		}
	}

	var head string
	if headID, ok, err := r.GetHead(); err == nil && ok {
		if commit, ok, err := r.GetCommit(headID); err == nil && ok {
			head, err = r.blobAtPath(commit.TreeID, filePath)
			if err != nil {
				return nil, err
			}
		}
	}

	return diff.GenerateHunks(head, indexed, 3)
}

func (r *Repository) blobAtPath(treeID hash.ID, filePath string) (string, error) {
	paths, err := r.GetTreePaths(treeID)
	if err != nil {
		return "", err
	}
	id, ok := paths[filePath]
	if !ok {
		return "", nil
	}
	blob, ok, err := r.GetBlob(id)
	if err != nil || !ok {
		return "", err
	}
	return string(blob.Bytes()), nil
}

// GetWorkingTreeStatus reconciles HEAD, the index and the filesystem.
func (r *Repository) GetWorkingTreeStatus() ([]worktree.WorkingTreeFile, error) {
	idx, err := r.index()
	if err != nil {
		return nil, err
	}

	var head map[string]hash.ID
	if headID, ok, err := r.GetHead(); err == nil && ok {
		if commit, ok, err := r.GetCommit(headID); err == nil && ok {
			head, err = r.GetTreePaths(commit.TreeID)
			if err != nil {
				return nil, err
			}
		}
	}

	return r.engine.ComputeStatus(head, idx)
}

// GetStagedChanges returns only the files with a non-nil Staged change.
func (r *Repository) GetStagedChanges() ([]worktree.WorkingTreeFile, error) {
	return filterStatus(r.GetWorkingTreeStatus, func(f worktree.WorkingTreeFile) bool { return f.Staged != nil })
}

// GetUnstagedChanges returns only the files with a non-nil Unstaged change.
func (r *Repository) GetUnstagedChanges() ([]worktree.WorkingTreeFile, error) {
	return filterStatus(r.GetWorkingTreeStatus, func(f worktree.WorkingTreeFile) bool { return f.Unstaged != nil })
}

func filterStatus(
	get func() ([]worktree.WorkingTreeFile, error),
	keep func(worktree.WorkingTreeFile) bool,
) ([]worktree.WorkingTreeFile, error) {
	all, err := get()
	if err != nil {
		return nil, err
	}
	out := make([]worktree.WorkingTreeFile, 0, len(all))
	for _, f := range all {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

func readFile(fs billy.Filesystem, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "does not exist")
}
