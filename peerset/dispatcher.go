package peerset

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/revocor/revocor/wire"
)

// Dispatcher is the flood dispatcher. On acceptance of a new record,
// it enqueues a copy to every connected peer's outbound channel. It
// should skip the peer the record was just received from (an
// optimization) but must never skip any peer for a client-originated
// record.
type Dispatcher struct {
	table *Table
}

// NewDispatcher returns a Dispatcher that floods over table.
func NewDispatcher(table *Table) *Dispatcher {
	return &Dispatcher{table: table}
}

// P2PMessage is the single outbound payload shape a Dispatcher ever
// enqueues: the byte image of a RevocationRecord, tagged with the
// fixed P2P_REVOKE message type.
type P2PMessage struct {
	Type   uint16
	Record wire.RevocationRecord
}

// Flood pushes rec to every connected peer except except (pass "" to
// flood to all peers, as is required for a client-originated record).
func (d *Dispatcher) Flood(rec *wire.RevocationRecord, except string) {
	msg := P2PMessage{Type: wire.P2PRevoke, Record: *rec}
	for _, e := range d.table.All() {
		if e.ID == except {
			continue
		}
		log.Tracef("flooding to peer %s: %v", e.ID, newLogClosure(func() string {
			return spew.Sdump(msg)
		}))
		// ChanIn is drained continuously by the queue's own
		// goroutine into an unbounded internal buffer, so this send
		// does not block on a slow peer writer and preserves
		// per-peer send order.
		e.Outbound.ChanIn() <- msg
	}
}
