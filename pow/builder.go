// Package pow implements the proof-of-work construction at the heart
// of the revocation registry: the multi-nonce averaging search that
// makes publishing a revocation expensive, and the authoritative
// validator that every other component calls before trusting a
// record. A fresh-key initializer and a resume-an-existing-record
// starter both fold into one Builder type with Round/Current/Stop, so
// callers never see two APIs for the same search.
package pow

import (
	"errors"
	"math/rand"
	"time"

	"github.com/revocor/revocor/crypto"
	"github.com/revocor/revocor/wire"
)

// Sentinel validation errors. A single failure short-circuits Check
// to "invalid"; callers distinguish kinds only for logging/statistics,
// never to partially trust a record.
var (
	ErrInvalidSignature  = errors.New("pow: invalid signature")
	ErrNonAscendingNonce = errors.New("pow: nonces not strictly ascending")
	ErrInsufficientWork  = errors.New("pow: average bit-score below difficulty")
	ErrNotYetValid       = errors.New("pow: record timestamp is in the future")
	ErrExpired           = errors.New("pow: record has expired")
)

// Builder drives an interruptible nonce search for one revocation
// record. The caller drives Round() in a cooperative loop, one trial
// per scheduler tick, so that cancellation and progress-checkpointing
// remain possible.
type Builder struct {
	record  wire.RevocationRecord
	pub     [wire.PublicKeySize]byte
	target  int // required average bit-score: difficulty + epochs
	rng     *rand.Rand
	candidate uint64

	bestNonces [wire.PowCount]uint64
	bestBits   [wire.PowCount]int
	worstIdx   int

	stopped bool
}

// NewFromPrivateKey folds pow_init: it fills timestamp (now minus the
// clock slack), public_key (derived from priv) and signature (ECDSA
// over the purpose tuple), then begins a search (pow_start) against
// epochs/difficulty/epochDuration.
func NewFromPrivateKey(priv *crypto.PrivateKey, epochs, difficulty int, epochDuration time.Duration) *Builder {
	pub := priv.Public()
	rec := wire.RevocationRecord{
		Timestamp: wire.NowMicros() - int64(wire.ClockSlack/time.Microsecond),
	}
	rec.PublicKey = pub.Bytes()
	rec.Signature = priv.Sign(rec.SignedRegion())
	return newBuilder(rec, epochs, difficulty, epochDuration)
}

// NewFromRecord folds pow_start for the case where the caller already
// holds an already-signed record (e.g. recovered from a saved file)
// and only wants to resume or extend the nonce search. The record's
// Timestamp, PublicKey and Signature are taken as-is and not
// re-derived.
func NewFromRecord(rec wire.RevocationRecord, epochs, difficulty int, epochDuration time.Duration) *Builder {
	return newBuilder(rec, epochs, difficulty, epochDuration)
}

func newBuilder(rec wire.RevocationRecord, epochs, difficulty int, epochDuration time.Duration) *Builder {
	rec.TTL = int64(time.Duration(epochs) * epochDuration / time.Microsecond)
	b := &Builder{
		record: rec,
		pub:    rec.PublicKey,
		target: difficulty + epochs,
		// A weak, fast PRNG is sufficient and explicitly specified:
		// the seed only needs to scatter the starting candidate, not
		// resist prediction.
		rng: rand.New(rand.NewSource(int64(wire.NowMicros()))),
	}
	b.candidate = b.rng.Uint64()
	return b
}

// Round performs exactly one trial: the candidate nonce is
// incremented, rejected without change if it already appears in the
// best table, otherwise hashed and scored. If its bit-score beats the
// current worst entry in the best table, that entry is replaced (and
// the corresponding slot of the record's nonce array is overwritten).
// Round returns true iff every slot of the best table holds a searched
// nonce and the table's mean bit-score has reached the target; on
// true, the nonce array is sorted ascending and committed into the
// record.
func (b *Builder) Round() bool {
	if b.stopped {
		return false
	}
	b.candidate++
	if b.containsNonce(b.candidate) {
		return b.bestBits[b.worstIdx] > 0 && b.meanBits() >= b.target
	}

	hash := crypto.PowHash(wire.PowDomain, powInput(b.candidate, b.record.Timestamp, b.pub))
	bits := crypto.LeadingZeroBits(hash)

	if bits > b.bestBits[b.worstIdx] {
		b.insertAt(b.worstIdx, b.candidate, bits)
	}

	if b.bestBits[b.worstIdx] > 0 && b.meanBits() >= b.target {
		b.commit()
		return true
	}
	return false
}

// Current returns the current state of the record being built,
// suitable for periodic checkpointing.
func (b *Builder) Current() wire.RevocationRecord {
	return b.record
}

// Stop cancels the search; further calls to Round are no-ops.
func (b *Builder) Stop() {
	b.stopped = true
}

func (b *Builder) containsNonce(n uint64) bool {
	for _, existing := range b.bestNonces {
		if existing == n {
			return true
		}
	}
	return false
}

func (b *Builder) insertAt(idx int, nonce uint64, bits int) {
	b.bestNonces[idx] = nonce
	b.bestBits[idx] = bits
	b.record.Nonces[idx] = nonce
	b.recomputeWorst()
}

func (b *Builder) recomputeWorst() {
	worst := 0
	for i, bits := range b.bestBits {
		if bits < b.bestBits[worst] {
			worst = i
		}
	}
	b.worstIdx = worst
}

func (b *Builder) meanBits() int {
	sum := 0
	for _, bits := range b.bestBits {
		sum += bits
	}
	return sum / wire.PowCount
}

// commit sorts the accumulated nonces ascending and writes them into
// the record: nonces must be strictly ascending once finalized.
func (b *Builder) commit() {
	sorted := b.bestNonces
	insertionSortUint64(sorted[:])
	b.record.Nonces = sorted
}

func insertionSortUint64(s []uint64) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

// powInput builds the exact byte sequence hashed to compute a nonce's
// bit-score: nonce (NBO) || timestamp (NBO) || public_key. It reuses
// wire.RevocationRecord's own NBO encoders rather than re-implementing
// big-endian packing here, by staging the candidate into a scratch
// record.
func powInput(nonce uint64, timestamp int64, pub [wire.PublicKeySize]byte) []byte {
	scratch := wire.RevocationRecord{Timestamp: timestamp, PublicKey: pub}
	scratch.Nonces[0] = nonce

	out := make([]byte, 0, 16+len(pub))
	out = append(out, scratch.NonceBytes(0)...)
	out = append(out, scratch.TimestampBytes()...)
	out = append(out, scratch.PublicKey[:]...)
	return out
}
