package revocation

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/revocor/revocor/crypto"
	"github.com/revocor/revocor/peerset"
	"github.com/revocor/revocor/pow"
	"github.com/revocor/revocor/store"
	"github.com/revocor/revocor/wire"
)

const testEpochDuration = 30 * 24 * time.Hour

var errTransport = errors.New("transport: simulated failure")

func testConfig(t *testing.T, difficulty int) *Config {
	t.Helper()
	return &Config{
		WorkBits:      difficulty,
		EpochDuration: testEpochDuration,
		Database:      filepath.Join(t.TempDir(), "revocations.log"),
		ListenAddr:    "127.0.0.1:0",
	}
}

func buildRecord(t *testing.T, difficulty, epochs int) (*crypto.PrivateKey, wire.RevocationRecord) {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	b := pow.NewFromPrivateKey(priv, epochs, difficulty, testEpochDuration)
	const maxRounds = 2_000_000
	for i := 0; i < maxRounds; i++ {
		if b.Round() {
			return priv, b.Current()
		}
	}
	t.Fatalf("builder did not converge within %d rounds", maxRounds)
	return nil, wire.RevocationRecord{}
}

// fakeTransport is a hand-rolled SetUnionTransport stand-in: each
// reconciliation round simply hands back whatever elements were
// queued for that peer, modeling a remote side with records we lack.
type fakeTransport struct {
	remoteOnly map[string][][]byte
	err        error
}

func (f *fakeTransport) Initiate(appID [64]byte, peerID string, local [][]byte) ([][]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.remoteOnly[peerID], nil
}

func (f *fakeTransport) Accept(appID [64]byte, peerID string, local [][]byte) ([][]byte, error) {
	return f.Initiate(appID, peerID, local)
}

func TestRevokeHonestRecordAccepted(t *testing.T) {
	_, rec := buildRecord(t, 1, 1)
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)

	svc, err := NewService(testConfig(t, 1), priv2, nil, nil)
	require.NoError(t, err)
	defer svc.Shutdown()

	ok, err := svc.Revoke(&rec)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, svc.IsRevoked(recKey(rec)))
}

func TestRevokeDuplicateStillReportsSuccessButDoesNotReflood(t *testing.T) {
	_, rec := buildRecord(t, 1, 1)
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)

	svc, err := NewService(testConfig(t, 1), priv2, nil, nil)
	require.NoError(t, err)
	defer svc.Shutdown()

	var peerHash [64]byte
	svc.HandlePeerConnect("peer-a", peerHash)
	entry, connected := svc.table.Get("peer-a")
	require.True(t, connected)

	ok1, err := svc.Revoke(&rec)
	require.NoError(t, err)
	require.True(t, ok1)

	select {
	case <-entry.Outbound.ChanOut():
	case <-time.After(time.Second):
		t.Fatal("accepted record was never flooded")
	}

	ok2, err := svc.Revoke(&rec)
	require.NoError(t, err)
	require.True(t, ok2)

	select {
	case <-entry.Outbound.ChanOut():
		t.Fatal("duplicate record was flooded again")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRevokeInsufficientWorkRejected(t *testing.T) {
	_, rec := buildRecord(t, 1, 1)
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)

	svc, err := NewService(testConfig(t, 50), priv2, nil, nil)
	require.NoError(t, err)
	defer svc.Shutdown()

	ok, err := svc.Revoke(&rec)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, svc.IsRevoked(recKey(rec)))
}

func TestRevokeNonAscendingNoncesRejected(t *testing.T) {
	_, rec := buildRecord(t, 1, 1)
	rec.Nonces[0], rec.Nonces[1] = rec.Nonces[1], rec.Nonces[0]
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)

	svc, err := NewService(testConfig(t, 1), priv2, nil, nil)
	require.NoError(t, err)
	defer svc.Shutdown()

	ok, err := svc.Revoke(&rec)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRevokeWrongSignatureRejected(t *testing.T) {
	_, rec := buildRecord(t, 1, 1)
	rec.Signature[0] ^= 0xFF
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)

	svc, err := NewService(testConfig(t, 1), priv2, nil, nil)
	require.NoError(t, err)
	defer svc.Shutdown()

	ok, err := svc.Revoke(&rec)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestServiceRestartReplaysLog(t *testing.T) {
	_, rec := buildRecord(t, 1, 1)
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)

	cfg := testConfig(t, 1)
	svc, err := NewService(cfg, priv2, nil, nil)
	require.NoError(t, err)

	ok, err := svc.Revoke(&rec)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, svc.Shutdown())

	svc2, err := NewService(cfg, priv2, nil, nil)
	require.NoError(t, err)
	defer svc2.Shutdown()
	require.True(t, svc2.IsRevoked(recKey(rec)))
}

func TestInitiateReconciliationLearnsRemoteRecord(t *testing.T) {
	_, remoteRec := buildRecord(t, 1, 1)
	transport := &fakeTransport{
		remoteOnly: map[string][][]byte{
			"peer-a": {peerset.EncodeElement(&remoteRec)},
		},
	}

	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)
	svc, err := NewService(testConfig(t, 1), priv2, transport, nil)
	require.NoError(t, err)
	defer svc.Shutdown()

	var peerHash [64]byte
	peerHash[0] = 0xFF // the peer wins the tie-break, so this side schedules no stagger timer
	svc.HandlePeerConnect("peer-a", peerHash)

	require.NoError(t, svc.InitiateReconciliation("peer-a"))
	require.True(t, svc.IsRevoked(recKey(remoteRec)))
}

type countingStats struct {
	reconciliationFailures int
}

func (c *countingStats) IncAccepted()              {}
func (c *countingStats) IncDuplicate()             {}
func (c *countingStats) IncRejected(error)         {}
func (c *countingStats) IncReconciliationFailure() { c.reconciliationFailures++ }
func (c *countingStats) IncUnsupportedElement()    {}

func TestInitiateReconciliationFailureCountsStat(t *testing.T) {
	transport := &fakeTransport{err: errTransport}
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)
	stats := &countingStats{}
	svc, err := NewService(testConfig(t, 1), priv2, transport, stats)
	require.NoError(t, err)
	defer svc.Shutdown()

	var peerHash [64]byte
	svc.HandlePeerConnect("peer-a", peerHash)

	require.Error(t, svc.InitiateReconciliation("peer-a"))
	require.Equal(t, 1, stats.reconciliationFailures)
}

func recKey(rec wire.RevocationRecord) store.Key {
	return store.HashPublicKey(rec.PublicKey)
}
