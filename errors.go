package git

import "fmt"

// NotARepository is returned when no HEAD can be resolved for the given
// working directory: it is not (or no longer) a Git repository.
var NotARepository = fmt.Errorf("not a git repository")

// ObjectNotFound is returned when an explicitly-requested object location
// does not resolve to any loose or packed object. Routine get_* queries
// return a nil result instead of this error; it surfaces only when a
// caller asked to load a specific, already-known location.
type ObjectNotFound struct {
	Hash string
}

func (e *ObjectNotFound) Error() string {
	return fmt.Sprintf("object not found: %s", e.Hash)
}

// InvalidObjectType is returned when an object's header names a type this
// reader does not understand.
type InvalidObjectType struct {
	Type string
}

func (e *InvalidObjectType) Error() string {
	return fmt.Sprintf("invalid object type: %s", e.Type)
}

// CorruptedRepository wraps a lower-level parse failure (pack, index,
// loose object) that prevents the facade from continuing a query.
type CorruptedRepository struct {
	Err error
}

func (e *CorruptedRepository) Error() string {
	return fmt.Sprintf("corrupted repository: %v", e.Err)
}

func (e *CorruptedRepository) Unwrap() error { return e.Err }

// PackIndexNotFound is returned when a packed object location names a pack
// whose .idx file was never loaded.
var PackIndexNotFound = fmt.Errorf("pack index not found")

// PackErrorKind enumerates the ways pack-object parsing fails.
type PackErrorKind int8

const (
	PackObjectNotFound PackErrorKind = iota
	PackBaseObjectNotFound
	PackUnsupportedObjectType
	PackCorruptedData
	PackInvalidPackFile
)

// PackError reports a failure while parsing a packfile object or
// resolving its delta chain.
type PackError struct {
	Kind PackErrorKind
	Hash string
	Name string
	Err  error
}

func (e *PackError) Error() string {
	switch e.Kind {
	case PackBaseObjectNotFound:
		return fmt.Sprintf("pack: base object not found: %s", e.Hash)
	case PackUnsupportedObjectType:
		return fmt.Sprintf("pack: unsupported object type: %s", e.Name)
	case PackCorruptedData:
		return fmt.Sprintf("pack: corrupted data: %v", e.Err)
	case PackInvalidPackFile:
		return fmt.Sprintf("pack: invalid pack file: %v", e.Err)
	default:
		return fmt.Sprintf("pack: object not found: %s", e.Hash)
	}
}

func (e *PackError) Unwrap() error { return e.Err }

// PackIndexErrorKind enumerates pack index (.idx) failures.
type PackIndexErrorKind int8

const (
	PackIndexUnsupportedVersion PackIndexErrorKind = iota
	PackIndexObjectNotFound
	PackIndexCorruptedData
)

// PackIndexError reports a failure decoding a .idx file.
type PackIndexError struct {
	Kind    PackIndexErrorKind
	Version uint32
	Err     error
}

func (e *PackIndexError) Error() string {
	switch e.Kind {
	case PackIndexUnsupportedVersion:
		return fmt.Sprintf("pack index: unsupported version: %d", e.Version)
	case PackIndexCorruptedData:
		return fmt.Sprintf("pack index: corrupted data: %v", e.Err)
	default:
		return "pack index: object not found"
	}
}

func (e *PackIndexError) Unwrap() error { return e.Err }

// GitIndexErrorKind enumerates staging-area (.git/index) decode failures.
type GitIndexErrorKind int8

const (
	GitIndexInvalidHeader GitIndexErrorKind = iota
	GitIndexUnsupportedVersion
	GitIndexConflict
	GitIndexTruncatedEntry
	GitIndexFileNotFound
)

// GitIndexError reports a failure decoding the index, or a lookup miss
// against an already-decoded one.
type GitIndexError struct {
	Kind    GitIndexErrorKind
	Version uint32
	AtIndex int
	Path    string
}

func (e *GitIndexError) Error() string {
	switch e.Kind {
	case GitIndexInvalidHeader:
		return "git index: invalid header"
	case GitIndexUnsupportedVersion:
		return fmt.Sprintf("git index: unsupported version: %d", e.Version)
	case GitIndexConflict:
		return fmt.Sprintf("git index: conflict at %s", e.Path)
	case GitIndexTruncatedEntry:
		return fmt.Sprintf("git index: truncated entry at %d", e.AtIndex)
	case GitIndexFileNotFound:
		return fmt.Sprintf("git index: file not found: %s", e.Path)
	default:
		return "git index: malformed"
	}
}

// DiffErrorKind enumerates the ways hunk generation refuses its input.
type DiffErrorKind int8

const (
	DiffFileTooLarge DiffErrorKind = iota
	DiffBinaryFile
	DiffInvalidEncoding
	DiffEmptyContent
)

// DiffError reports why the hunk generator declined to diff two strings.
type DiffError struct {
	Kind DiffErrorKind
	Size int
}

func (e *DiffError) Error() string {
	switch e.Kind {
	case DiffFileTooLarge:
		return fmt.Sprintf("diff: file too large: %d bytes", e.Size)
	case DiffBinaryFile:
		return "diff: binary file"
	case DiffInvalidEncoding:
		return "diff: invalid encoding"
	default:
		return "diff: empty content"
	}
}

// GitErrorKind enumerates the outcomes of the subprocess-based mutation
// facade (§6.3 commands), including classifications derived from stderr
// sniffing.
type GitErrorKind int8

const (
	GitNotFound GitErrorKind = iota
	GitCommandFailed
	GitNotARepository
	GitEmptyCommitMessage
	GitNothingToCommit
	GitCommitFailed
	GitStageFailed
	GitUnstageFailed
	GitStageHunkFailed
	GitUnstageHunkFailed
	GitFileNotInIndex
	GitCannotStageHunkFromUntrackedFile
	GitDiscardFileFailed
	GitDiscardHunkFailed
	GitDiscardAllFailed
	GitCherryPickConflict
	GitCherryPickFailed
	GitRevertConflict
	GitRevertFailed
	GitCheckoutFailed
	GitUncommittedChanges
	GitDeleteBranchFailed
	GitCannotDeleteCurrentBranch
	GitCannotDeleteProtectedBranch
	GitNothingToStash
	GitStashFailed
	GitStashPopFailed
	GitStashApplyFailed
	GitStashDropFailed
	GitDiffFailed
)

// GitError reports the outcome of an external git invocation: either a
// taxonomy-classified failure, or the raw command and stderr for the
// generic GitCommandFailed case.
type GitError struct {
	Kind    GitErrorKind
	Command []string
	Stderr  string
	Branch  string
	Action  string
}

func (e *GitError) Error() string {
	switch e.Kind {
	case GitNotFound:
		return "git: binary not found"
	case GitCommandFailed:
		return fmt.Sprintf("git %v: %s", e.Command, e.Stderr)
	case GitNotARepository:
		return "git: not a repository"
	case GitEmptyCommitMessage:
		return "git: empty commit message"
	case GitNothingToCommit:
		return "git: nothing to commit"
	case GitFileNotInIndex:
		return "git: file not in index"
	case GitCannotStageHunkFromUntrackedFile:
		return "git: cannot stage hunk from untracked file"
	case GitCherryPickConflict:
		return "git: cherry-pick conflict"
	case GitRevertConflict:
		return "git: revert conflict"
	case GitCheckoutFailed:
		return fmt.Sprintf("git: checkout failed: branch=%s action=%s: %s", e.Branch, e.Action, e.Stderr)
	case GitUncommittedChanges:
		return "git: uncommitted changes"
	case GitCannotDeleteCurrentBranch:
		return fmt.Sprintf("git: cannot delete current branch: %s", e.Branch)
	case GitCannotDeleteProtectedBranch:
		return fmt.Sprintf("git: cannot delete protected branch: %s", e.Branch)
	case GitNothingToStash:
		return "git: nothing to stash"
	default:
		return fmt.Sprintf("git: command failed: %s", e.Stderr)
	}
}
