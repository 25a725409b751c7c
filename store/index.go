// Package store implements the two persistence-adjacent components of
// the revocation core: the in-memory RevocationIndex and the durable
// append-only RevocationLog.
package store

import (
	"crypto/sha256"
	"errors"

	"github.com/revocor/revocor/wire"
)

// ErrDuplicate is returned by Insert when a key is already present.
// The caller replies success to the client but does NOT re-flood.
var ErrDuplicate = errors.New("store: key already revoked")

// Key is hash(PublicKey), the collision-resistant digest under which a
// revocation is indexed.
type Key [32]byte

// HashPublicKey computes the index key for a public key.
func HashPublicKey(pub [wire.PublicKeySize]byte) Key {
	return Key(sha256.Sum256(pub[:]))
}

// RevocationIndex maps hash(PublicKey) to the accepted
// RevocationRecord for that key. At most one record per key; once
// inserted, an entry is never removed for the life of the process.
type RevocationIndex struct {
	entries map[Key]*wire.RevocationRecord
}

// NewRevocationIndex returns an empty index.
func NewRevocationIndex() *RevocationIndex {
	return &RevocationIndex{entries: make(map[Key]*wire.RevocationRecord)}
}

// Lookup returns the record stored for key, if any.
func (idx *RevocationIndex) Lookup(key Key) (*wire.RevocationRecord, bool) {
	rec, ok := idx.entries[key]
	return rec, ok
}

// Contains reports whether key has an entry, without allocating a
// copy of the record.
func (idx *RevocationIndex) Contains(key Key) bool {
	_, ok := idx.entries[key]
	return ok
}

// Insert adds rec under key. It is unique-only: a second attempt to
// insert an already-present key returns ErrDuplicate and leaves the
// existing entry untouched.
func (idx *RevocationIndex) Insert(key Key, rec *wire.RevocationRecord) error {
	if _, exists := idx.entries[key]; exists {
		return ErrDuplicate
	}
	idx.entries[key] = rec
	return nil
}

// Len returns the number of distinct revoked keys currently indexed.
func (idx *RevocationIndex) Len() int {
	return len(idx.entries)
}

// Each calls fn once per (key, record) pair currently indexed, used to
// seed a fresh ReconciliationSet from replayed state at start-up.
func (idx *RevocationIndex) Each(fn func(Key, *wire.RevocationRecord)) {
	for k, rec := range idx.entries {
		fn(k, rec)
	}
}
