// Package revocation wires the wire, crypto, pow, store, block, peerset
// and rpc packages into the single component the rest of an embedding
// application drives: Service, the revocation core's top-level
// lifecycle and event loop. Service owns every subsystem and brackets
// them with a constructor and Shutdown.
package revocation

import (
	"github.com/go-errors/errors"

	"github.com/revocor/revocor/crypto"
	"github.com/revocor/revocor/peerset"
	"github.com/revocor/revocor/pow"
	"github.com/revocor/revocor/store"
	"github.com/revocor/revocor/wire"
)

// Service owns the revocation core's entire state: the durable log,
// the in-memory index, the connected-peer table and flood dispatcher,
// and the reconciliation set. Every method here runs on a single
// event-loop goroutine; there is no internal locking.
type Service struct {
	cfg       *Config
	identity  *crypto.PrivateKey
	selfHash  [64]byte
	appID     [64]byte
	stats     Stats
	transport peerset.SetUnionTransport

	revLog   *store.RevocationLog
	index    *store.RevocationIndex
	table    *peerset.Table
	dispatch *peerset.Dispatcher
	recon    *peerset.ReconciliationSet

	notify chan string
	quit   chan struct{}
}

// NewService opens cfg.Database, replays it into a fresh index and
// reconciliation set, and returns a Service ready to accept client
// and peer traffic. identity is this node's signing key, used only to
// compute the peer tie-break hash; transport drives set-reconciliation
// and may be nil if the embedding application never calls
// InitiateReconciliation/AcceptReconciliation. A nil stats is replaced
// with NopStats.
func NewService(cfg *Config, identity *crypto.PrivateKey, transport peerset.SetUnionTransport, stats Stats) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stats == nil {
		stats = NopStats{}
	}

	revLog, err := store.OpenRevocationLog(cfg.Database)
	if err != nil {
		return nil, errors.Errorf("revocation: open log: %v", err)
	}

	index := store.NewRevocationIndex()
	if _, err := revLog.Replay(index); err != nil {
		revLog.Close()
		return nil, errors.Errorf("revocation: replay log: %v", err)
	}

	recon := peerset.NewReconciliationSet()
	index.Each(func(key store.Key, rec *wire.RevocationRecord) {
		recon.Add(key, rec)
	})

	pubBytes := identity.Public().Bytes()
	selfHash := wire.IdentityHash(pubBytes[:])
	table := peerset.NewTable(selfHash)

	return &Service{
		cfg:       cfg,
		identity:  identity,
		selfHash:  selfHash,
		appID:     wire.ApplicationID(),
		stats:     stats,
		transport: transport,
		revLog:    revLog,
		index:     index,
		table:     table,
		dispatch:  peerset.NewDispatcher(table),
		recon:     recon,
		notify:    make(chan string, 1),
		quit:      make(chan struct{}),
	}, nil
}

// Revoke validates, persists and floods a client-submitted record. It
// satisfies rpc.Revoker: ok is true iff the record was accepted (the
// key is now revoked, whether newly or because it already was), false
// if validation rejected it outright. A non-nil error is returned only
// when a log append failed, which the caller must report to the
// client as an internal error rather than a plain rejection.
func (s *Service) Revoke(rec *wire.RevocationRecord) (ok bool, err error) {
	return s.accept(rec, "" /* client-originated: flood to every peer */)
}

// IsRevoked satisfies rpc.Querier.
func (s *Service) IsRevoked(key store.Key) bool {
	return s.index.Contains(key)
}

// AcceptFromPeer runs a peer- or reconciliation-sourced record through
// the same validate/persist/flood pipeline as a client REVOKE, except
// that the record is not re-flooded back to the peer it arrived from.
// This skip-origin optimization applies only to peer-sourced records.
func (s *Service) AcceptFromPeer(rec *wire.RevocationRecord, originPeerID string) (accepted bool, err error) {
	return s.accept(rec, originPeerID)
}

// accept is the shared validate -> persist -> index -> flood pipeline
// for both client- and peer-originated records. except is the peer ID
// to skip when flooding; pass "" to flood to everyone.
func (s *Service) accept(rec *wire.RevocationRecord, except string) (ok bool, err error) {
	if checkErr := pow.Check(rec, s.cfg.WorkBits, s.cfg.EpochDuration); checkErr != nil {
		s.stats.IncRejected(checkErr)
		return false, nil
	}

	key := store.HashPublicKey(rec.PublicKey)
	if s.index.Contains(key) {
		// Already revoked: report success to the caller but do not
		// re-append or re-flood (store.ErrDuplicate contract).
		s.stats.IncDuplicate()
		return true, nil
	}

	if err := s.revLog.Append(rec); err != nil {
		return false, errors.Errorf("revocation: persist: %v", err)
	}
	if err := s.index.Insert(key, rec); err != nil {
		// Cannot happen: Contains(key) was just false above, and
		// accept is never called concurrently with itself.
		return false, errors.Errorf("revocation: index insert: %v", err)
	}
	s.recon.Add(key, rec)
	s.stats.IncAccepted()

	s.dispatch.Flood(rec, except)
	return true, nil
}

// HandlePeerConnect registers a newly connected peer and runs the
// tie-break that decides which side initiates set-reconciliation. If
// this side wins the tie-break, the stagger timer's fire is delivered
// to Run via the Service's own notify channel.
func (s *Service) HandlePeerConnect(id string, peerIdentityHash [64]byte) {
	s.table.Connect(id, peerIdentityHash, s.notify)
}

// HandlePeerDisconnect tears down a departed peer's state.
func (s *Service) HandlePeerDisconnect(id string) {
	s.table.Disconnect(id)
}

// HandleP2PMessage applies an incoming flood message from peer id.
func (s *Service) HandleP2PMessage(id string, msg peerset.P2PMessage) error {
	if msg.Type != wire.P2PRevoke {
		return errors.Errorf("revocation: unknown p2p message type %d", msg.Type)
	}
	_, err := s.AcceptFromPeer(&msg.Record, id)
	return err
}

// InitiateReconciliation drives a set-union with peer id as the
// initiating side. It is called once the stagger timer for a
// tie-break-won peer fires, normally from Run's event loop.
func (s *Service) InitiateReconciliation(id string) error {
	if _, ok := s.table.Get(id); !ok {
		return nil
	}
	if s.transport == nil {
		return errors.New("revocation: no set-union transport configured")
	}

	s.table.SetState(id, peerset.StateExchanging)
	remoteOnly, err := s.transport.Initiate(s.appID, id, s.recon.Elements())
	if err != nil {
		s.stats.IncReconciliationFailure()
		s.table.SetState(id, peerset.StateIdle)
		return err
	}
	s.applyReconciliationResult(remoteOnly, id)
	s.table.SetState(id, peerset.StateIdle)
	return nil
}

// AcceptReconciliation drives a set-union with peer id as the
// responding side, called when an incoming set-union request arrives
// from a peer that won the tie-break.
func (s *Service) AcceptReconciliation(id string) error {
	if s.transport == nil {
		return errors.New("revocation: no set-union transport configured")
	}
	s.table.SetState(id, peerset.StateExchanging)
	remoteOnly, err := s.transport.Accept(s.appID, id, s.recon.Elements())
	if err != nil {
		s.stats.IncReconciliationFailure()
		s.table.SetState(id, peerset.StateIdle)
		return err
	}
	s.applyReconciliationResult(remoteOnly, id)
	s.table.SetState(id, peerset.StateIdle)
	return nil
}

// applyReconciliationResult runs every element the peer had that we
// didn't through the same acceptance pipeline as a directly flooded
// record, tagging originPeerID so it isn't re-flooded back.
func (s *Service) applyReconciliationResult(elements [][]byte, originPeerID string) {
	for _, raw := range elements {
		rec, unsupported, err := peerset.DecodeElement(raw)
		if unsupported {
			s.stats.IncUnsupportedElement()
			continue
		}
		if err != nil {
			log.Warnf("reconciliation element from %s: %v", originPeerID, err)
			continue
		}
		if _, err := s.AcceptFromPeer(rec, originPeerID); err != nil {
			log.Warnf("reconciliation record from %s: %v", originPeerID, err)
		}
	}
}

// Run is the Service's cooperative event loop: it blocks until a
// stagger timer fires (driving InitiateReconciliation) or Shutdown is
// called. The embedding application's own network/RPC event sources
// are expected to call Service's other methods directly rather than
// through Run, matching the single-threaded ownership model.
func (s *Service) Run() {
	for {
		select {
		case id := <-s.notify:
			if err := s.InitiateReconciliation(id); err != nil {
				log.Warnf("reconciliation with %s failed: %v", id, err)
			}
		case <-s.quit:
			return
		}
	}
}

// Shutdown disconnects every peer and closes the durable log.
func (s *Service) Shutdown() error {
	close(s.quit)
	s.table.Shutdown()
	return s.revLog.Close()
}
