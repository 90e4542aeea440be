// Package ref reads Git's reference namespace: loose refs under refs/,
// packed-refs with peeled-tag continuation lines, HEAD resolution, and the
// stash reflog.
package ref

import "github.com/brillcp/SwiftGit-sub000/plumbing/hash"

// Type classifies a Ref by the refs/ subdirectory it was found under.
type Type int8

const (
	LocalBranch Type = iota
	RemoteBranch
	Tag
	Stash
)

// Ref is a single named pointer into the object graph, with its category
// prefix already trimmed from Name.
type Ref struct {
	Name string
	Hash hash.ID
	Type Type
}

// Stash is one reflog entry in logs/refs/stash: a saved working-tree and
// index state. Index 0 is the most recently pushed stash.
type Stash struct {
	Index   int
	ID      hash.ID
	Message string
	Date    int64
}
