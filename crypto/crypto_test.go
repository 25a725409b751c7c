package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	pub := priv.Public()

	msg := []byte("some purpose-bound region")
	sig := priv.Sign(msg)
	require.True(t, pub.Verify(msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	pub := priv.Public()

	msg := []byte("original")
	sig := priv.Sign(msg)
	require.False(t, pub.Verify([]byte("tampered"), sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv1, err := GenerateKey()
	require.NoError(t, err)
	priv2, err := GenerateKey()
	require.NoError(t, err)

	msg := []byte("hello")
	sig := priv1.Sign(msg)
	require.False(t, priv2.Public().Verify(msg, sig))
}

func TestPublicKeyBytesRoundTrip(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	pub := priv.Public()

	b := pub.Bytes()
	got, err := ParsePublicKey(b)
	require.NoError(t, err)
	require.Equal(t, b, got.Bytes())
}

func TestPowHashDeterministic(t *testing.T) {
	a := PowHash("domain", []byte("data"))
	b := PowHash("domain", []byte("data"))
	require.Equal(t, a, b)

	c := PowHash("domain", []byte("other"))
	require.NotEqual(t, a, c)
}

func TestLeadingZeroBits(t *testing.T) {
	var h [64]byte
	require.Equal(t, 512, LeadingZeroBits(h))

	h[0] = 0x01
	require.Equal(t, 7, LeadingZeroBits(h))

	h[0] = 0x80
	require.Equal(t, 0, LeadingZeroBits(h))
}
