package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// RevocationRecord is the single canonical object encoding a
// revocation, in a fixed wire order: timestamp, ttl,
// nonces[PowCount], signature, public_key.
type RevocationRecord struct {
	// Timestamp is the intended start of validity, in microseconds
	// since the Unix epoch.
	Timestamp int64

	// TTL is the relative duration, in microseconds, that the record
	// remains valid for past Timestamp once its score clears the
	// configured difficulty.
	TTL int64

	// Nonces MUST be pairwise distinct and strictly ascending by
	// their host-order numeric value once the record is finalized.
	Nonces [PowCount]uint64

	// Signature is the ECDSA signature (r || s, 32 bytes each) over
	// the purpose tuple returned by SignedRegion. It does not cover
	// Nonces.
	Signature [SignatureSize]byte

	// PublicKey is the compressed secp256k1 public key being revoked.
	PublicKey [PublicKeySize]byte
}

// TimestampTime returns Timestamp as a time.Time.
func (r *RevocationRecord) TimestampTime() time.Time {
	return microsToTime(r.Timestamp)
}

// TTLDuration returns TTL as a time.Duration.
func (r *RevocationRecord) TTLDuration() time.Duration {
	return time.Duration(r.TTL) * time.Microsecond
}

func microsToTime(us int64) time.Time {
	return time.Unix(us/1e6, (us%1e6)*1e3).UTC()
}

func timeToMicros(t time.Time) int64 {
	return t.Unix()*1e6 + int64(t.Nanosecond())/1e3
}

// NowMicros returns the current time in the record's epoch unit.
func NowMicros() int64 {
	return timeToMicros(time.Now().UTC())
}

// Encode writes the fixed-size wire image of the record to w.
func (r *RevocationRecord) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, r.Timestamp); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, r.TTL); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, r.Nonces); err != nil {
		return err
	}
	if _, err := w.Write(r.Signature[:]); err != nil {
		return err
	}
	if _, err := w.Write(r.PublicKey[:]); err != nil {
		return err
	}
	return nil
}

// Decode parses the fixed-size wire image of a record from r.
func (r *RevocationRecord) Decode(rd io.Reader) error {
	if err := binary.Read(rd, binary.BigEndian, &r.Timestamp); err != nil {
		return err
	}
	if err := binary.Read(rd, binary.BigEndian, &r.TTL); err != nil {
		return err
	}
	if err := binary.Read(rd, binary.BigEndian, &r.Nonces); err != nil {
		return err
	}
	if _, err := io.ReadFull(rd, r.Signature[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(rd, r.PublicKey[:]); err != nil {
		return err
	}
	return nil
}

// Bytes returns the fixed-size wire image of the record.
func (r *RevocationRecord) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(RecordSize)
	// Encode cannot fail writing into a bytes.Buffer.
	_ = r.Encode(&buf)
	return buf.Bytes()
}

// RecordFromBytes parses a record out of an exact-size byte slice.
func RecordFromBytes(b []byte) (*RevocationRecord, error) {
	if len(b) != RecordSize {
		log.Debugf("rejecting record image of size %d, want %d", len(b), RecordSize)
		return nil, fmt.Errorf("wire: bad record size %d, want %d", len(b), RecordSize)
	}
	r := &RevocationRecord{}
	if err := r.Decode(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return r, nil
}

// SignedRegion returns the exact byte sequence that is signed: the
// purpose tag, the purpose size, the timestamp and the public key, in
// that order. The nonces are never covered, since they are searched
// for after signing.
func (r *RevocationRecord) SignedRegion() []byte {
	var buf bytes.Buffer
	buf.Grow(int(PurposeSize))
	binary.Write(&buf, binary.BigEndian, PurposeTag)
	binary.Write(&buf, binary.BigEndian, PurposeSize)
	binary.Write(&buf, binary.BigEndian, r.Timestamp)
	buf.Write(r.PublicKey[:])
	return buf.Bytes()
}

// NonceBytes returns the NBO byte encoding of nonces[i], used as input
// to the PoW hash together with the timestamp and public key.
func (r *RevocationRecord) NonceBytes(i int) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], r.Nonces[i])
	return b[:]
}

// TimestampBytes returns the NBO byte encoding of the timestamp.
func (r *RevocationRecord) TimestampBytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(r.Timestamp))
	return b[:]
}
