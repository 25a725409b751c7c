package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameHeader is the {size, type} header that prefixes every client
// protocol message. Size is the length of the payload that follows
// the header, not counting the header itself.
type FrameHeader struct {
	Size uint16
	Type uint16
}

// WriteFrameHeader writes h to w in network byte order.
func WriteFrameHeader(w io.Writer, h FrameHeader) error {
	var hdr [FrameHeaderSize]byte
	binary.BigEndian.PutUint16(hdr[0:2], h.Size)
	binary.BigEndian.PutUint16(hdr[2:4], h.Type)
	_, err := w.Write(hdr[:])
	return err
}

// ReadFrameHeader reads a FrameHeader from r.
func ReadFrameHeader(r io.Reader) (FrameHeader, error) {
	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return FrameHeader{}, err
	}
	return FrameHeader{
		Size: binary.BigEndian.Uint16(hdr[0:2]),
		Type: binary.BigEndian.Uint16(hdr[2:4]),
	}, nil
}

// QueryMsg is the QUERY client message payload: the public key to
// check.
type QueryMsg struct {
	PublicKey [PublicKeySize]byte
}

// Encode writes the QUERY payload.
func (m *QueryMsg) Encode(w io.Writer) error {
	_, err := w.Write(m.PublicKey[:])
	return err
}

// Decode parses the QUERY payload.
func (m *QueryMsg) Decode(r io.Reader) error {
	_, err := io.ReadFull(r, m.PublicKey[:])
	return err
}

// QueryPayloadSize is the exact payload size of a QUERY message.
const QueryPayloadSize = PublicKeySize

// IsValid encodes the tri-state result of a query or revoke: 1 = still
// valid (not revoked), 0 = revoked, and the caller may separately
// signal -1 for an internal error since it is not a record state.
type IsValid int32

const (
	StatusRevoked      IsValid = 0
	StatusValid        IsValid = 1
	StatusInternalError IsValid = -1
)

// QueryResponseMsg is the QUERY_RESPONSE payload.
type QueryResponseMsg struct {
	IsValid IsValid
}

// QueryResponsePayloadSize is the exact payload size of a
// QUERY_RESPONSE message.
const QueryResponsePayloadSize = 4

func (m *QueryResponseMsg) Encode(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, int32(m.IsValid))
}

func (m *QueryResponseMsg) Decode(r io.Reader) error {
	var v int32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return err
	}
	m.IsValid = IsValid(v)
	return nil
}

// RevokeMsg is the REVOKE client message payload: a full record.
type RevokeMsg struct {
	Record RevocationRecord
}

// RevokePayloadSize is the exact payload size of a REVOKE message.
const RevokePayloadSize = RecordSize

func (m *RevokeMsg) Encode(w io.Writer) error {
	return m.Record.Encode(w)
}

func (m *RevokeMsg) Decode(r io.Reader) error {
	return m.Record.Decode(r)
}

// RevokeResponseMsg is the REVOKE_RESPONSE payload, with the same
// semantics as QueryResponseMsg.
type RevokeResponseMsg struct {
	IsValid IsValid
}

// RevokeResponsePayloadSize is the exact payload size of a
// REVOKE_RESPONSE message.
const RevokeResponsePayloadSize = 4

func (m *RevokeResponseMsg) Encode(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, int32(m.IsValid))
}

func (m *RevokeResponseMsg) Decode(r io.Reader) error {
	var v int32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return err
	}
	m.IsValid = IsValid(v)
	return nil
}

// ErrMalformedMessage describes a frame whose declared size does not
// match the payload size required by its declared type. No function in
// this package returns it; rpc.CheckFrame reports that case as
// rpc.ErrProtocolBreak.
var ErrMalformedMessage = fmt.Errorf("wire: malformed client message")

// ExpectedPayloadSize returns the payload size mandated for a given
// client message type, or ok=false for an unrecognized type.
func ExpectedPayloadSize(msgType uint16) (size int, ok bool) {
	switch msgType {
	case MsgQuery:
		return QueryPayloadSize, true
	case MsgQueryResponse:
		return QueryResponsePayloadSize, true
	case MsgRevoke:
		return RevokePayloadSize, true
	case MsgRevokeResponse:
		return RevokeResponsePayloadSize, true
	default:
		return 0, false
	}
}
