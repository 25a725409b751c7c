package block

import (
	"testing"
	"time"

	"github.com/revocor/revocor/crypto"
	"github.com/revocor/revocor/pow"
	"github.com/stretchr/testify/require"
)

func buildTestRecord(t *testing.T) *pow.Builder {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	b := pow.NewFromPrivateKey(priv, 1, 1, 30*24*time.Hour)
	for i := 0; i < 2_000_000; i++ {
		if b.Round() {
			return b
		}
	}
	t.Fatal("pow builder did not converge")
	return nil
}

func TestPluginGetKeyRejectsWrongSize(t *testing.T) {
	p := NewPlugin(1, time.Hour)
	_, err := p.GetKey([]byte("too short"))
	require.ErrorIs(t, err, ErrWrongSize)
}

func TestPluginEvaluateQueryOnly(t *testing.T) {
	p := NewPlugin(1, time.Hour)
	group, err := NewGroupFromElementCount(10)
	require.NoError(t, err)

	verdict, _, err := p.Evaluate(group, make([]byte, 32), nil)
	require.NoError(t, err)
	require.Equal(t, VerdictRequestValid, verdict)
}

func TestPluginEvaluateAcceptsThenDedupes(t *testing.T) {
	p := NewPlugin(1, 30*24*time.Hour)
	group, err := NewGroupFromElementCount(10)
	require.NoError(t, err)

	b := buildTestRecord(t)
	rec := b.Current()
	blockBytes := rec.Bytes()
	query := make([]byte, 32)

	verdict, _, err := p.Evaluate(group, query, blockBytes)
	require.NoError(t, err)
	require.Equal(t, VerdictAccepted, verdict)

	verdict2, _, err := p.Evaluate(group, query, blockBytes)
	require.NoError(t, err)
	require.Equal(t, VerdictDuplicate, verdict2)
}

func TestPluginEvaluateRejectsInvalidPow(t *testing.T) {
	p := NewPlugin(50, time.Hour)
	group, err := NewGroupFromElementCount(10)
	require.NoError(t, err)

	b := buildTestRecord(t)
	rec := b.Current()

	verdict, _, err := p.Evaluate(group, make([]byte, 32), rec.Bytes())
	require.Error(t, err)
	require.Equal(t, VerdictInvalid, verdict)
}
