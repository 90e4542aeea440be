// Package object decodes Git's three content-addressed object kinds
// (commit, tree, blob) from their inflated on-disk representation.
package object

import (
	"crypto"
	"fmt"
	"strconv"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

// Type identifies which of the object kinds a decoded body holds.
type Type int8

const (
	InvalidObject Type = iota
	CommitObject
	TreeObject
	BlobObject
	TagObject
)

func (t Type) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	case TagObject:
		return "tag"
	default:
		return "invalid"
	}
}

// TypeFromString parses the type word found at the head of a loose object
// ("commit", "tree", "blob", "tag") or in a pack header name.
func TypeFromString(s string) (Type, error) {
	switch s {
	case "commit":
		return CommitObject, nil
	case "tree":
		return TreeObject, nil
	case "blob":
		return BlobObject, nil
	case "tag":
		return TagObject, nil
	default:
		return InvalidObject, fmt.Errorf("invalid object type: %q", s)
	}
}

// Hasher computes the id of an object from its type and inflated content:
// sha1("<type> <size>\0<content>"). Git moved its SHA-1 implementation to a
// collision-detecting variant after SHAttered; we follow suit via
// plumbing/hash.
type Hasher struct {
	h hash.Digest
}

// NewHasher returns a ready-to-use Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: hash.New(crypto.SHA1)}
}

// Sum computes the object id for a body of the given type.
func (o *Hasher) Sum(t Type, body []byte) hash.ID {
	o.h.Reset()
	o.h.Write([]byte(t.String()))
	o.h.Write([]byte(" "))
	o.h.Write([]byte(strconv.Itoa(len(body))))
	o.h.Write([]byte{0})
	o.h.Write(body)
	sum := o.h.Sum(nil)
	id, _ := hash.FromBytes(sum)
	return id
}
