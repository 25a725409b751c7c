package peerset

import (
	"fmt"

	"github.com/revocor/revocor/store"
	"github.com/revocor/revocor/wire"
)

// ElementType identifies the kind of payload carried by one element
// of a set-reconciliation exchange. Only ElementTypeRecord is
// currently defined; anything else is counted as unsupported and
// ignored.
type ElementType byte

// ElementTypeRecord is the only accepted element type: the payload is
// the raw wire image of a RevocationRecord.
const ElementTypeRecord ElementType = 0

// EncodeElement produces the on-the-wire element: a one-byte type tag
// followed by the record's fixed-size image.
func EncodeElement(rec *wire.RevocationRecord) []byte {
	out := make([]byte, 0, 1+wire.RecordSize)
	out = append(out, byte(ElementTypeRecord))
	out = append(out, rec.Bytes()...)
	return out
}

// DecodeElement parses one set-reconciliation element. unsupported is
// true when the element's type tag is not ElementTypeRecord; in that
// case rec is nil and err is nil, since an unsupported type is not a
// protocol error, merely ignored.
func DecodeElement(b []byte) (rec *wire.RevocationRecord, unsupported bool, err error) {
	if len(b) < 1 {
		return nil, false, fmt.Errorf("peerset: empty element")
	}
	if ElementType(b[0]) != ElementTypeRecord {
		log.Debugf("ignoring set-reconciliation element with unsupported type %d", b[0])
		return nil, true, nil
	}
	rec, err = wire.RecordFromBytes(b[1:])
	return rec, false, err
}

// ReconciliationSet is the content-addressed set of all currently
// accepted RevocationRecords, exposed to the peer layer as the input
// to a set-union operation.
type ReconciliationSet struct {
	elements map[store.Key]*wire.RevocationRecord
}

// NewReconciliationSet returns an empty set.
func NewReconciliationSet() *ReconciliationSet {
	return &ReconciliationSet{elements: make(map[store.Key]*wire.RevocationRecord)}
}

// Add inserts rec under key if not already present, returning true iff
// it was newly added.
func (s *ReconciliationSet) Add(key store.Key, rec *wire.RevocationRecord) bool {
	if _, exists := s.elements[key]; exists {
		return false
	}
	s.elements[key] = rec
	return true
}

// Elements returns every record currently in the set, encoded as
// set-reconciliation elements, suitable as input to SetUnionTransport.
func (s *ReconciliationSet) Elements() [][]byte {
	out := make([][]byte, 0, len(s.elements))
	for _, rec := range s.elements {
		out = append(out, EncodeElement(rec))
	}
	return out
}

// Len returns the number of records currently in the set.
func (s *ReconciliationSet) Len() int {
	return len(s.elements)
}

// SetUnionTransport is the external set-reconciliation collaborator.
// Only the application identifier, the raw-record element encoding,
// and the accepted element type (0) are fixed here; the actual
// set-union algorithm and wire framing are left to the transport
// implementation.
type SetUnionTransport interface {
	// Initiate starts a set-union operation with peerID using our
	// local element set, returning the elements the remote side had
	// that we did not (i.e. the elements we must learn).
	Initiate(appID [64]byte, peerID string, local [][]byte) (remoteOnly [][]byte, err error)

	// Accept commits our local element set in response to an
	// incoming set-union request from peerID, returning the elements
	// the remote side had that we did not.
	Accept(appID [64]byte, peerID string, local [][]byte) (remoteOnly [][]byte, err error)
}
