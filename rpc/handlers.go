// Package rpc implements the client-facing RPC contract:
// QUERY/QUERY_RESPONSE and REVOKE/REVOKE_RESPONSE over an abstract
// per-client channel, plus malformed-length frame handling.
package rpc

import (
	"errors"

	"github.com/revocor/revocor/store"
	"github.com/revocor/revocor/wire"
)

// ErrProtocolBreak is returned when a client frame's declared size
// does not match what its declared type requires. The caller MUST
// drop the frame and keep the channel open.
var ErrProtocolBreak = errors.New("rpc: protocol break: malformed client message")

// Querier looks up whether a public key has been revoked.
type Querier interface {
	// IsRevoked reports whether key is present in the revocation
	// index.
	IsRevoked(key store.Key) bool
}

// Revoker validates and, on success, persists and floods a
// revocation record. ok reports whether the revocation was accepted:
// true if the record was valid and the key is now revoked, false if
// it was rejected and the key remains valid. persistErr is non-nil
// only on an internal persistence failure, which the handler reports
// to the client as an internal error rather than as a plain
// rejection.
type Revoker interface {
	Revoke(rec *wire.RevocationRecord) (ok bool, persistErr error)
}

// Handler implements the three client message handlers over an
// already-framed request/response pair. One Handler instance MUST be
// used for at most one in-flight request per client channel at a
// time; callers enforce this by not invoking a second Handle call
// before the first returns.
type Handler struct {
	Query  Querier
	Revoke Revoker
}

// NewHandler constructs a Handler.
func NewHandler(q Querier, r Revoker) *Handler {
	return &Handler{Query: q, Revoke: r}
}

// HandleQuery answers a QUERY request: is_valid is true iff the index
// holds no entry for hash(public_key).
func (h *Handler) HandleQuery(req *wire.QueryMsg) *wire.QueryResponseMsg {
	key := store.HashPublicKey(req.PublicKey)
	if h.Query.IsRevoked(key) {
		return &wire.QueryResponseMsg{IsValid: wire.StatusRevoked}
	}
	return &wire.QueryResponseMsg{IsValid: wire.StatusValid}
}

// HandleRevoke answers a REVOKE request: is_valid reports whether the
// key remains valid after the operation, i.e. StatusRevoked on a
// successful revocation and StatusValid if the revocation was
// rejected. A persistence failure is reported as an internal error
// instead.
func (h *Handler) HandleRevoke(req *wire.RevokeMsg) *wire.RevokeResponseMsg {
	ok, err := h.Revoke.Revoke(&req.Record)
	if err != nil {
		log.Warnf("revoke persistence failure: %v", err)
		return &wire.RevokeResponseMsg{IsValid: wire.StatusInternalError}
	}
	if ok {
		return &wire.RevokeResponseMsg{IsValid: wire.StatusRevoked}
	}
	return &wire.RevokeResponseMsg{IsValid: wire.StatusValid}
}

// CheckFrame validates that hdr's declared size matches what its
// declared type requires, returning ErrProtocolBreak otherwise: a
// malformed length is an immediate protocol break, but the client
// channel remains open.
func CheckFrame(hdr wire.FrameHeader) error {
	size, ok := wire.ExpectedPayloadSize(hdr.Type)
	if !ok || int(hdr.Size) != size {
		log.Debugf("protocol break: frame type %d declares size %d", hdr.Type, hdr.Size)
		return ErrProtocolBreak
	}
	return nil
}
