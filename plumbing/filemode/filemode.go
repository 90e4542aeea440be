// Package filemode defines the small set of Unix file modes Git stores in
// tree entries, and the mapping between them and entry types.
package filemode

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
)

// FileMode is one of the handful of Unix permission/type bit patterns Git
// allows in a tree entry. It is kept as the raw numeric value (not a
// string) since that is how it round-trips through the packfile and index
// formats.
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0o40000
	Regular    FileMode = 0o100644
	Deprecated FileMode = 0o100664
	Executable FileMode = 0o100755
	Symlink    FileMode = 0o120000
	Submodule  FileMode = 0o160000
)

// New parses the octal textual mode used in tree entries and in
// `git diff-tree` style output.
func New(s string) (FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("malformed mode %q: %w", s, err)
	}
	return FileMode(n), nil
}

// NewFromOSFileMode converts a filesystem os.FileMode, as observed scanning
// the working tree, into the nearest Git file mode.
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	if m&os.ModeTemporary != 0 {
		return Empty, fmt.Errorf("no equivalent file mode for os.ModeTemporary")
	}

	if m.IsDir() {
		return Dir, nil
	}

	if m&os.ModeSymlink != 0 {
		return Symlink, nil
	}

	if m&os.ModeType != 0 {
		return Empty, fmt.Errorf("no equivalent file mode for %s", m)
	}

	if m&0o111 != 0 {
		return Executable, nil
	}

	return Regular, nil
}

// String renders m as a seven-digit, zero-padded octal string
// (e.g. "0100644").
func (m FileMode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}

// IsRegular reports whether m is a plain (non-executable) file.
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

// IsFile reports whether m addresses blob content directly: a regular
// file, executable, or symlink (but not a tree or gitlink).
func (m FileMode) IsFile() bool {
	switch m {
	case Regular, Deprecated, Executable, Symlink:
		return true
	default:
		return false
	}
}

// Bytes renders m as four bytes, little-endian.
func (m FileMode) Bytes() []byte {
	result := make([]byte, 4)
	binary.LittleEndian.PutUint32(result, uint32(m))
	return result
}

// ToOSFileMode converts m to the nearest os.FileMode usable when
// materializing this entry onto a filesystem. It fails for Empty and any
// other malformed mode, since those have no meaningful on-disk rendering.
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir, Submodule:
		return os.ModePerm | os.ModeDir, nil
	case Regular, Deprecated:
		return 0o644, nil
	case Executable:
		return 0o755, nil
	case Symlink:
		return os.ModePerm | os.ModeSymlink, nil
	default:
		return 0, fmt.Errorf("malformed mode %s", m)
	}
}

// IsMalformed reports whether m is Empty or any other value that is not
// one of the known modes.
func (m FileMode) IsMalformed() bool {
	switch m {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// EntryKind classifies a tree entry by its mode, per the prefix rules Git
// uses: a leading "40" (five-digit "40000" or six-digit "040000") means a
// subtree, "120000" a symlink, "160000" a gitlink (submodule), anything
// else a blob.
type EntryKind int8

const (
	BlobEntry EntryKind = iota
	TreeEntry
	SymlinkEntry
	GitlinkEntry
)

func (k EntryKind) String() string {
	switch k {
	case TreeEntry:
		return "tree"
	case SymlinkEntry:
		return "symlink"
	case GitlinkEntry:
		return "gitlink"
	default:
		return "blob"
	}
}

// Kind classifies m using Git's mode-prefix convention. Unrecognized modes
// degrade to BlobEntry rather than failing, the same way an unknown index
// file mode degrades to a regular file.
func (m FileMode) Kind() EntryKind {
	switch m {
	case Dir:
		return TreeEntry
	case Symlink:
		return SymlinkEntry
	case Submodule:
		return GitlinkEntry
	default:
		return BlobEntry
	}
}
