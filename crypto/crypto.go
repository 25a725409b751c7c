// Package crypto is the adapter between the revocation core and the
// external cryptographic primitive library: ECDSA keygen/sign/verify
// over secp256k1, and the memory-hard PoW hash. No other component
// links against the primitive library directly.
package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/scrypt"

	"github.com/revocor/revocor/wire"
)

// PrivateKey is the signing key known only to the legitimate owner of
// a public key; it is required to produce the revocation signature
// but not required thereafter.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// PublicKey is the fixed-size compressed secp256k1 public key that is
// both the subject of a revocation and the key under which the
// revocation is indexed.
type PublicKey struct {
	key *btcec.PublicKey
}

// GenerateKey creates a fresh keypair.
func GenerateKey() (*PrivateKey, error) {
	k, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: keygen: %w", err)
	}
	log.Debugf("generated fresh secp256k1 keypair")
	return &PrivateKey{key: k}, nil
}

// Public returns the public key derived from priv.
func (priv *PrivateKey) Public() *PublicKey {
	return &PublicKey{key: priv.key.PubKey()}
}

// Serialize returns the raw 32-byte scalar encoding of priv, for
// persisting a node's long-term identity key across restarts.
func (priv *PrivateKey) Serialize() []byte {
	return priv.key.Serialize()
}

// ParsePrivateKey decodes a raw 32-byte scalar produced by Serialize.
func ParsePrivateKey(b []byte) (*PrivateKey, error) {
	k, _ := btcec.PrivKeyFromBytes(b)
	return &PrivateKey{key: k}, nil
}

// Bytes returns the fixed-size compressed encoding of pub.
func (pub *PublicKey) Bytes() [wire.PublicKeySize]byte {
	var out [wire.PublicKeySize]byte
	copy(out[:], pub.key.SerializeCompressed())
	return out
}

// ParsePublicKey decodes a compressed secp256k1 public key.
func ParsePublicKey(b [wire.PublicKeySize]byte) (*PublicKey, error) {
	k, err := btcec.ParsePubKey(b[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: bad public key: %w", err)
	}
	return &PublicKey{key: k}, nil
}

// Sign produces a fixed-width (r||s) ECDSA signature over msg.
func (priv *PrivateKey) Sign(msg []byte) [wire.SignatureSize]byte {
	var out [wire.SignatureSize]byte
	digest := hashMessage(msg)
	sig := ecdsa.Sign(priv.key, digest)
	r := sig.R()
	s := sig.S()
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(out[0:32], rBytes[:])
	copy(out[32:64], sBytes[:])
	return out
}

// Verify checks sig against msg under pub.
func (pub *PublicKey) Verify(msg []byte, sig [wire.SignatureSize]byte) bool {
	var rBytes, sBytes [32]byte
	copy(rBytes[:], sig[:32])
	copy(sBytes[:], sig[32:])

	var rMod, sMod btcec.ModNScalar
	rMod.SetBytes(&rBytes)
	sMod.SetBytes(&sBytes)
	s := ecdsa.NewSignature(&rMod, &sMod)

	digest := hashMessage(msg)
	return s.Verify(digest, pub.key)
}

func hashMessage(msg []byte) []byte {
	// btcec's ecdsa package expects a 32-byte digest; we use the
	// leading 32 bytes of the memory-hard PoW hash of the message
	// under a distinct domain so the signature hash and the PoW hash
	// can never be confused with one another.
	full := PowHash("revocor-sig-digest", msg)
	return full[:32]
}

// PowHash is the memory-hard hash function used both to compute a
// nonce's bit-score and (via hashMessage) to derive the ECDSA
// signing digest. domain is mixed in as a fixed separation string so
// unrelated uses of the same KDF can never collide.
func PowHash(domain string, data []byte) [wire.PowHashSize]byte {
	// scrypt parameters are fixed and process-wide: N=1024, r=8, p=1
	// is deliberately light enough to run one round per scheduler
	// tick while still being materially more expensive than a plain
	// hash for an attacker building custom hardware.
	salt := []byte(domain)
	key, err := scrypt.Key(data, salt, 1024, 8, 1, wire.PowHashSize)
	if err != nil {
		// scrypt only fails on invalid parameters, which are fixed
		// constants here; a failure indicates a programming error.
		panic(fmt.Sprintf("crypto: scrypt parameters invalid: %v", err))
	}
	var out [wire.PowHashSize]byte
	copy(out[:], key)
	return out
}

// LeadingZeroBits returns the number of leading zero bits in h.
func LeadingZeroBits(h [wire.PowHashSize]byte) int {
	count := 0
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) != 0 {
				return count
			}
			count++
		}
	}
	return count
}
