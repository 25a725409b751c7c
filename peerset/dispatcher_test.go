package peerset

import (
	"testing"
	"time"

	"github.com/revocor/revocor/wire"
	"github.com/stretchr/testify/require"
)

func TestFloodSkipsExceptPeer(t *testing.T) {
	var self [64]byte
	table := NewTable(self)
	notify := make(chan string, 4)
	var peer [64]byte
	peer[0] = 0x01
	table.Connect("origin", peer, notify)
	table.Connect("other", peer, notify)

	d := NewDispatcher(table)
	rec := &wire.RevocationRecord{Timestamp: wire.NowMicros()}
	d.Flood(rec, "origin")

	originEntry, _ := table.Get("origin")
	otherEntry, _ := table.Get("other")

	select {
	case <-originEntry.Outbound.ChanOut():
		t.Fatal("origin peer should have been skipped")
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case msg := <-otherEntry.Outbound.ChanOut():
		p2p, ok := msg.(P2PMessage)
		require.True(t, ok)
		require.Equal(t, wire.P2PRevoke, p2p.Type)
	case <-time.After(time.Second):
		t.Fatal("other peer never received flooded record")
	}
}

func TestFloodToAllOnClientOriginated(t *testing.T) {
	var self [64]byte
	table := NewTable(self)
	notify := make(chan string, 4)
	var peer [64]byte
	for _, id := range []string{"a", "b"} {
		table.Connect(id, peer, notify)
	}
	d := NewDispatcher(table)
	rec := &wire.RevocationRecord{Timestamp: wire.NowMicros()}
	d.Flood(rec, "")

	for _, id := range []string{"a", "b"} {
		e, _ := table.Get(id)
		select {
		case <-e.Outbound.ChanOut():
		case <-time.After(time.Second):
			t.Fatalf("peer %s never received flooded record", id)
		}
	}
}
