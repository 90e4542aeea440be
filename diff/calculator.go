package diff

import "github.com/brillcp/SwiftGit-sub000/plumbing/hash"

// ChangeType classifies how a path differs between two trees.
type ChangeType int8

const (
	Added ChangeType = iota
	Modified
	Deleted
	Renamed
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangedFile describes one path's change between a tree and its parent.
type ChangedFile struct {
	Path       string
	ChangeType ChangeType
	// OldPath is set only when ChangeType is Renamed.
	OldPath string
}

// ComputeDiff compares current against parent, both flattened path -> blob
// hash maps (see a tree walker's get_tree_paths). parent == nil means the
// commit has no parent: every path in current is Added.
//
// Rename detection is exact-content only: a path appearing only in
// current whose hash matches a path appearing only in parent is reported
// as a rename, not an add+delete pair. Processed-set bookkeeping prevents
// a renamed-from path from also being reported as deleted.
func ComputeDiff(current, parent map[string]hash.ID) map[string]ChangedFile {
	result := make(map[string]ChangedFile)

	if parent == nil {
		for path := range current {
			result[path] = ChangedFile{Path: path, ChangeType: Added}
		}
		return result
	}

	parentByHash := make(map[hash.ID]string, len(parent))
	for path, h := range parent {
		parentByHash[h] = path
	}

	processed := make(map[string]bool, len(parent))

	for path, h := range current {
		if ph, ok := parent[path]; ok {
			processed[path] = true
			if ph == h {
				continue
			}
			result[path] = ChangedFile{Path: path, ChangeType: Modified}
			continue
		}

		if oldPath, ok := parentByHash[h]; ok && oldPath != path {
			if _, stillExists := current[oldPath]; !stillExists && !processed[oldPath] {
				result[path] = ChangedFile{Path: path, ChangeType: Renamed, OldPath: oldPath}
				processed[oldPath] = true
				continue
			}
		}

		result[path] = ChangedFile{Path: path, ChangeType: Added}
	}

	for path := range parent {
		if processed[path] {
			continue
		}
		if _, ok := current[path]; ok {
			continue
		}
		result[path] = ChangedFile{Path: path, ChangeType: Deleted}
	}

	return result
}
