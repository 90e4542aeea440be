// Package hash provides object-id parsing and the underlying digest
// implementation used to compute them.
package hash

import (
	"crypto"
	"errors"
	"fmt"
	"hash"

	"github.com/pjbgf/sha1cd"
)

// ErrUnsupportedHashFunction is returned by RegisterHash for any
// crypto.Hash other than SHA-1. SHA-256 object hashing is out of scope
// for this reader (see DESIGN.md); RegisterHash can only replace the
// SHA-1 implementation.
var ErrUnsupportedHashFunction = errors.New("unsupported hash function")

// algos maps a crypto.Hash identifier to a constructor for its digest
// implementation. SHA-1 defaults to a collision-detecting implementation,
// matching the approach git itself moved to after SHAttered.
var algos = map[crypto.Hash]func() hash.Hash{
	crypto.SHA1: sha1cd.New,
}

// RegisterHash overrides the digest implementation used for h.
func RegisterHash(h crypto.Hash, f func() hash.Hash) error {
	if f == nil {
		return fmt.Errorf("cannot register hash: f is nil")
	}
	if h != crypto.SHA1 {
		return fmt.Errorf("%w: %v", ErrUnsupportedHashFunction, h)
	}
	algos[h] = f
	return nil
}

// Digest is a resettable running hash, i.e. hash.Hash.
type Digest interface {
	hash.Hash
}

// New returns a new Digest for the given hash function. It panics if the
// hash function is not registered.
func New(h crypto.Hash) Digest {
	hh, ok := algos[h]
	if !ok {
		panic(fmt.Sprintf("hash algorithm not registered: %v", h))
	}
	return hh()
}
