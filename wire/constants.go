// Package wire defines the fixed-layout on-wire and on-disk structures
// shared by every component of the revocation core: the revocation
// record itself, the client-protocol framing header, and the constants
// that MUST be agreed across implementations.
package wire

import "time"

const (
	// PowCount is the number of nonces carried by a revocation record
	// and averaged to produce its score.
	PowCount = 32

	// PublicKeySize is the fixed encoded size of a secp256k1 public
	// key in compressed form.
	PublicKeySize = 33

	// SignatureSize is the fixed encoded size of a DER-free, fixed
	// width ECDSA signature (r || s, 32 bytes each).
	SignatureSize = 64

	// PowHashSize is the output width, in bytes, of the memory-hard
	// PoW hash (512 bits).
	PowHashSize = 64

	// RecordSize is the exact byte length of a RevocationRecord's wire
	// image: timestamp(8) + ttl(8) + nonces(32*8) + signature(64) +
	// public key(33).
	RecordSize = 8 + 8 + PowCount*8 + SignatureSize + PublicKeySize

	// PurposeTag is the fixed 32-bit constant identifying the
	// "revocation" signature purpose. It binds a signature to this
	// specific protocol use and prevents cross-protocol signature
	// reuse.
	PurposeTag uint32 = 0x52455643 // ASCII "REVC"

	// PurposeSize is the byte length of the signed region: purpose_tag
	// (4) + purpose_size (4) + timestamp (8) + public_key (33).
	PurposeSize uint32 = 4 + 4 + 8 + PublicKeySize

	// PowDomain is the fixed domain-separation string mixed into every
	// PoW hash computation.
	PowDomain = "revocor-pow-v1"

	// ApplicationIDString is hashed to derive the DHT application
	// identifier and the set-reconciliation application identifier.
	ApplicationIDString = "revocation-set-union-application-id"

	// ClockSlack is the amount by which a signer SHOULD predate a
	// record's timestamp, and by which a validator tolerates a
	// timestamp in the future, to absorb clock skew between peers.
	// Expiry is not extended by it; see ExpirySlackFraction.
	ClockSlack = 7 * 24 * time.Hour

	// ExpirySlackFraction is the fraction of one EpochDuration added to
	// a record's computed expiry to further absorb clock skew.
	ExpirySlackFraction = 0.10
)

// Client protocol message types.
const (
	MsgQuery uint16 = iota + 1
	MsgQueryResponse
	MsgRevoke
	MsgRevokeResponse
)

// P2PRevoke is the single peer-to-peer message type: it carries a raw
// RevocationRecord image.
const P2PRevoke uint16 = 0x01

// FrameHeaderSize is the size of the {size, type} client-protocol
// framing header.
const FrameHeaderSize = 2 + 2

// MaxClientPayload is an upper limit on a single client frame's
// payload. Nothing in this package enforces it: ReadFrameHeader
// returns the declared size as read.
const MaxClientPayload = 4096
