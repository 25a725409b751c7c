package pow

import (
	"testing"
	"time"

	"github.com/revocor/revocor/crypto"
	"github.com/stretchr/testify/require"
)

const testEpochDuration = 30 * 24 * time.Hour

func buildRecord(t *testing.T, difficulty, epochs int) (*crypto.PrivateKey, *Builder) {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	b := NewFromPrivateKey(priv, epochs, difficulty, testEpochDuration)
	const maxRounds = 2_000_000
	for i := 0; i < maxRounds; i++ {
		if b.Round() {
			return priv, b
		}
	}
	t.Fatalf("builder did not converge within %d rounds", maxRounds)
	return nil, nil
}

func TestBuilderProducesAcceptableRecord(t *testing.T) {
	_, b := buildRecord(t, 1, 1)
	rec := b.Current()
	require.NoError(t, Check(&rec, 1, testEpochDuration))
}

func TestBuilderNoncesAscendingAndDistinct(t *testing.T) {
	_, b := buildRecord(t, 1, 1)
	rec := b.Current()
	for i := 1; i < len(rec.Nonces); i++ {
		require.Greater(t, rec.Nonces[i], rec.Nonces[i-1])
	}
}

func TestCheckRejectsTamperedSignature(t *testing.T) {
	_, b := buildRecord(t, 1, 1)
	rec := b.Current()
	rec.Signature[0] ^= 0xFF
	require.ErrorIs(t, Check(&rec, 1, testEpochDuration), ErrInvalidSignature)
}

func TestCheckRejectsTamperedNonce(t *testing.T) {
	_, b := buildRecord(t, 1, 1)
	rec := b.Current()
	rec.Nonces[0] ^= 0xFF
	require.Error(t, Check(&rec, 1, testEpochDuration))
}

func TestCheckRejectsTamperedPublicKey(t *testing.T) {
	_, b := buildRecord(t, 1, 1)
	rec := b.Current()
	rec.PublicKey[0] ^= 0xFF
	require.ErrorIs(t, Check(&rec, 1, testEpochDuration), ErrInvalidSignature)
}

func TestCheckRejectsNonAscendingNonces(t *testing.T) {
	_, b := buildRecord(t, 1, 1)
	rec := b.Current()
	rec.Nonces[0], rec.Nonces[1] = rec.Nonces[1], rec.Nonces[0]
	require.ErrorIs(t, Check(&rec, 1, testEpochDuration), ErrNonAscendingNonce)
}

func TestCheckRejectsInsufficientWork(t *testing.T) {
	_, b := buildRecord(t, 1, 1)
	rec := b.Current()
	require.ErrorIs(t, Check(&rec, 50, testEpochDuration), ErrInsufficientWork)
}

func TestCheckRejectsExpired(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	b := NewFromPrivateKey(priv, 1, 1, testEpochDuration)
	// Force the timestamp far enough in the past that, even with the
	// maximum epochs this difficulty could plausibly earn, the record
	// is expired.
	rec := b.Current()
	rec.Timestamp -= int64(365 * 24 * time.Hour / time.Microsecond)
	rec.Signature = priv.Sign(rec.SignedRegion())
	b2 := NewFromRecord(rec, 1, 1, testEpochDuration)
	const maxRounds = 2_000_000
	for i := 0; i < maxRounds; i++ {
		if b2.Round() {
			break
		}
	}
	got := b2.Current()
	require.ErrorIs(t, Check(&got, 1, testEpochDuration), ErrExpired)
}

func TestStopPreventsFurtherProgress(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	b := NewFromPrivateKey(priv, 1, 50, testEpochDuration)
	b.Round()
	before := b.Current()
	b.Stop()
	for i := 0; i < 1000; i++ {
		b.Round()
	}
	after := b.Current()
	require.Equal(t, before, after)
}
