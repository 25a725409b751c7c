// Package peerset implements per-connected-peer state and the flood
// dispatcher, which share the same peer table: PeerEntry, the
// connect/accept tie-break, the reconciliation-initiation stagger,
// and flooding a freshly accepted record to every connected peer.
package peerset

import (
	"time"

	"github.com/revocor/revocor/internal/queue"
	"github.com/revocor/revocor/internal/ticker"
	"github.com/revocor/revocor/wire"
)

// State is a peer's position in the reconciliation state machine:
//
//	NONE --connect--> IDLE --tiebreak win--> SCHEDULED --timer--> EXCHANGING
//	                    ^                                              |
//	                    +------------------ done / failure ------------+
type State int

const (
	StateNone State = iota
	StateIdle
	StateScheduled
	StateExchanging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateExchanging:
		return "exchanging"
	default:
		return "none"
	}
}

// ReconciliationStagger is the fixed delay the initiator waits before
// attempting a set-union, so that both sides of a newly connected
// pair don't redundantly start one.
const ReconciliationStagger = 1 * time.Second

// OutboundQueueLen is the buffer size of each peer's outbound message
// queue.
const OutboundQueueLen = 50

// Entry is the per-connected-peer state.
type Entry struct {
	ID           string
	IdentityHash [64]byte
	State        State
	Outbound     *queue.ConcurrentQueue

	scheduled ticker.Ticker
}

// Table owns every currently connected PeerEntry. It is mutated only
// from the single-threaded event loop: no locking is used.
type Table struct {
	selfHash [64]byte
	entries  map[string]*Entry
}

// NewTable returns an empty table for a service whose own identity
// hashes to selfHash.
func NewTable(selfHash [64]byte) *Table {
	return &Table{selfHash: selfHash, entries: make(map[string]*Entry)}
}

// Connect registers a newly connected peer, performs the tie-break,
// and — if this side is the initiator — starts the
// reconciliation-stagger timer, whose fire is reported on notify as
// id once ReconciliationStagger has elapsed. The receiver (non-
// initiator) side waits for an incoming request instead and is left
// in StateIdle.
func (t *Table) Connect(id string, peerIdentityHash [64]byte, notify chan<- string) *Entry {
	e := &Entry{
		ID:           id,
		IdentityHash: peerIdentityHash,
		State:        StateIdle,
		Outbound:     queue.NewConcurrentQueue(OutboundQueueLen),
	}
	e.Outbound.Start()
	t.entries[id] = e

	if wire.GreaterIdentity(t.selfHash, peerIdentityHash) {
		e.State = StateScheduled
		e.scheduled = ticker.NewOneShot(ReconciliationStagger)
		go func(id string, tk ticker.Ticker) {
			if _, ok := <-tk.Ticks(); ok {
				notify <- id
			}
		}(id, e.scheduled)
	}
	log.Debugf("peer %s connected, state=%s", id, e.State)
	return e
}

// Disconnect removes id's PeerEntry, cancelling any scheduled task and
// closing its outbound queue.
func (t *Table) Disconnect(id string) {
	e, ok := t.entries[id]
	if !ok {
		return
	}
	if e.scheduled != nil {
		e.scheduled.Stop()
	}
	e.Outbound.Stop()
	delete(t.entries, id)
	log.Debugf("peer %s disconnected", id)
}

// Get returns the entry for id, if connected.
func (t *Table) Get(id string) (*Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// All returns every currently connected entry. The returned slice is a
// snapshot; callers must not mutate the underlying table through it.
func (t *Table) All() []*Entry {
	out := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// SetState transitions id's entry to state, if connected.
func (t *Table) SetState(id string, state State) {
	if e, ok := t.entries[id]; ok {
		e.State = state
	}
}

// Shutdown disconnects every peer.
func (t *Table) Shutdown() {
	for id := range t.entries {
		t.Disconnect(id)
	}
}
