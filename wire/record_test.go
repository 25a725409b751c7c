package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	r := &RevocationRecord{
		Timestamp: NowMicros(),
		TTL:       int64(3 * 24 * time.Hour / time.Microsecond),
	}
	for i := range r.Nonces {
		r.Nonces[i] = uint64(i + 1)
	}
	for i := range r.Signature {
		r.Signature[i] = byte(i)
	}
	for i := range r.PublicKey {
		r.PublicKey[i] = byte(i + 1)
	}

	b := r.Bytes()
	require.Len(t, b, RecordSize)

	got, err := RecordFromBytes(b)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestRecordFromBytesRejectsBadSize(t *testing.T) {
	_, err := RecordFromBytes(make([]byte, RecordSize-1))
	require.Error(t, err)
}

func TestSignedRegionStableSize(t *testing.T) {
	r := &RevocationRecord{Timestamp: NowMicros()}
	require.Len(t, r.SignedRegion(), int(PurposeSize))
}

func TestFrameHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := FrameHeader{Size: 123, Type: MsgRevoke}
	require.NoError(t, WriteFrameHeader(&buf, h))
	got, err := ReadFrameHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}
