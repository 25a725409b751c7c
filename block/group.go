// Package block implements the plugin hooks a DHT block layer
// requires: get_key, evaluate, and create_group, gathered behind one
// capability struct. Duplicate replies along a single query path are
// suppressed with a per-query Bloom filter (BlockGroup), not a global
// table, since the block layer replicates revocations through the DHT
// as opportunistic pull.
package block

import (
	"hash"
	"hash/fnv"
	"math"

	bloomfilter "github.com/holiman/bloomfilter/v2"
)

// HashCount is the fixed number of hash functions used by every
// BlockGroup's Bloom filter.
const HashCount = 16

// DefaultFalsePositiveRate bounds the false-positive rate used when a
// group is sized from an expected element count rather than an
// explicit bit size.
const DefaultFalsePositiveRate = 1e-6

// BlockGroup is a per-query Bloom filter used to mark already-seen
// keys and suppress duplicate replies along the same query path.
type BlockGroup struct {
	filter *bloomfilter.Filter
}

// NewGroupFromElementCount sizes a fresh BlockGroup from an expected
// element count, at DefaultFalsePositiveRate and HashCount hash
// functions.
func NewGroupFromElementCount(expected uint64) (*BlockGroup, error) {
	if expected == 0 {
		expected = 1
	}
	m := optimalBits(expected, DefaultFalsePositiveRate)
	return newGroup(m)
}

// NewGroupFromBitSize sizes a fresh BlockGroup from an explicit bit
// size, at HashCount hash functions.
func NewGroupFromBitSize(bits uint64) (*BlockGroup, error) {
	if bits == 0 {
		bits = 1
	}
	return newGroup(bits)
}

func newGroup(bits uint64) (*BlockGroup, error) {
	f, err := bloomfilter.New(bits, HashCount)
	if err != nil {
		return nil, err
	}
	return &BlockGroup{filter: f}, nil
}

func optimalBits(n uint64, p float64) uint64 {
	m := -float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	if m < 1 {
		m = 1
	}
	return uint64(math.Ceil(m))
}

// Contains reports whether key has already been marked seen in this
// group.
func (g *BlockGroup) Contains(key []byte) bool {
	return g.filter.Contains(keyHash(key))
}

// Mark records key as seen in this group.
func (g *BlockGroup) Mark(key []byte) {
	g.filter.Add(keyHash(key))
}

func keyHash(key []byte) hash.Hash64 {
	h := fnv.New64a()
	h.Write(key)
	return h
}
