package pow

import (
	"time"

	"github.com/revocor/revocor/crypto"
	"github.com/revocor/revocor/wire"
)

// Check is the authoritative validator. It never blocks and never
// allocates on anything but the hot-path hash computation; on any
// failure it returns a non-nil error and the caller MUST neither
// store nor forward the record.
//
// Checks run, in order:
//  1. signature verifies against the embedded public key and the
//     fixed purpose tuple;
//  2. nonces are pairwise distinct and strictly ascending;
//  3. the average bit-score meets difficulty;
//  4. the record is neither from the future nor expired, given the
//     epochs its score earned past difficulty.
func Check(rec *wire.RevocationRecord, difficulty int, epochDuration time.Duration) error {
	pub, err := crypto.ParsePublicKey(rec.PublicKey)
	if err != nil {
		return ErrInvalidSignature
	}
	if !pub.Verify(rec.SignedRegion(), rec.Signature) {
		return ErrInvalidSignature
	}

	var last uint64
	totalBits := 0
	for i, nonce := range rec.Nonces {
		if i > 0 && nonce <= last {
			return ErrNonAscendingNonce
		}
		last = nonce

		hash := crypto.PowHash(wire.PowDomain, powInput(nonce, rec.Timestamp, rec.PublicKey))
		totalBits += crypto.LeadingZeroBits(hash)
	}
	mean := totalBits / wire.PowCount
	if mean < difficulty {
		return ErrInsufficientWork
	}
	epochs := mean - difficulty

	now := time.Now().UTC()
	ts := rec.TimestampTime()
	if now.Before(ts.Add(-wire.ClockSlack)) {
		return ErrNotYetValid
	}
	slack := time.Duration(float64(epochDuration) * wire.ExpirySlackFraction)
	expiry := ts.Add(time.Duration(epochs) * epochDuration).Add(slack)
	if now.After(expiry) {
		return ErrExpired
	}
	log.Tracef("record scored %d bits, %d epochs above difficulty", mean, epochs)
	return nil
}

// Score returns the mean bit-score of rec without performing the full
// validity check, for diagnostics and statistics.
func Score(rec *wire.RevocationRecord) int {
	total := 0
	for _, nonce := range rec.Nonces {
		hash := crypto.PowHash(wire.PowDomain, powInput(nonce, rec.Timestamp, rec.PublicKey))
		total += crypto.LeadingZeroBits(hash)
	}
	return total / wire.PowCount
}

// ValidEpochs returns Score(rec) - difficulty, which may be negative
// for a record that does not meet the minimum required work.
func ValidEpochs(rec *wire.RevocationRecord, difficulty int) int {
	return Score(rec) - difficulty
}
