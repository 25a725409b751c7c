package wire

import "crypto/sha512"

// ApplicationID returns the fixed 512-bit hash of ApplicationIDString,
// the DHT application identifier and set-reconciliation application
// identifier agreed across all implementations.
func ApplicationID() [64]byte {
	return sha512.Sum512([]byte(ApplicationIDString))
}

// IdentityHash returns the hash used to tie-break which side of a
// newly connected peer pair becomes the set-reconciliation initiator:
// the side with the greater hash initiates.
func IdentityHash(identity []byte) [64]byte {
	return sha512.Sum512(identity)
}

// GreaterIdentity reports whether a's identity hash is strictly
// greater than b's, byte by byte in big-endian order.
func GreaterIdentity(a, b [64]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
