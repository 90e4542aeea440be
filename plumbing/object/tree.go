package object

import (
	"fmt"

	"github.com/brillcp/SwiftGit-sub000/plumbing/filemode"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

// TreeEntry is a single name/mode/id triple inside a Tree: one file,
// subdirectory, symlink or gitlink.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	ID   hash.ID
}

// Kind classifies the entry using its mode.
func (e TreeEntry) Kind() filemode.EntryKind {
	return e.Mode.Kind()
}

// Tree is an ordered list of entries: a directory snapshot. Entries are
// kept in on-disk order (byte-sorted by name, with a trailing "/" implied
// for subtrees) since that order is part of the tree's hash.
type Tree struct {
	ID      hash.ID
	Entries []TreeEntry

	byName map[string]int
}

// ParseTree decodes the inflated body of a tree object. Each record is
// "<mode-octal> <name>\0<20-byte-id>" back to back, with no separators
// between records.
func ParseTree(id hash.ID, body []byte) (*Tree, error) {
	t := &Tree{ID: id}

	i := 0
	for i < len(body) {
		sp := indexByte(body[i:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("tree %s: malformed entry: missing space", id)
		}
		modeStr := string(body[i : i+sp])
		i += sp + 1

		nul := indexByte(body[i:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("tree %s: malformed entry: missing NUL", id)
		}
		name := string(body[i : i+nul])
		i += nul + 1

		if i+hash.Size > len(body) {
			return nil, fmt.Errorf("tree %s: truncated entry hash", id)
		}
		entryID, err := hash.FromBytes(body[i : i+hash.Size])
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", id, err)
		}
		i += hash.Size

		mode, err := filemode.New(modeStr)
		if err != nil {
			return nil, fmt.Errorf("tree %s: entry %q: %w", id, name, err)
		}

		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: mode, ID: entryID})
	}

	return t, nil
}

// Entry returns the entry named name, or false if no such entry exists.
func (t *Tree) Entry(name string) (TreeEntry, bool) {
	if t.byName == nil {
		t.byName = make(map[string]int, len(t.Entries))
		for i, e := range t.Entries {
			t.byName[e.Name] = i
		}
	}
	idx, ok := t.byName[name]
	if !ok {
		return TreeEntry{}, false
	}
	return t.Entries[idx], true
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
