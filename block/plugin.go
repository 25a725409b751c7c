package block

import (
	"errors"
	"time"

	"github.com/revocor/revocor/pow"
	"github.com/revocor/revocor/store"
	"github.com/revocor/revocor/wire"
)

// ErrWrongSize is returned by GetKey when the passed block is not the
// size of a revocation record.
var ErrWrongSize = errors.New("block: wrong block size")

// Verdict is the result of Evaluate.
type Verdict int

const (
	// VerdictRequestValid means a syntactically valid request (no
	// reply block to check yet).
	VerdictRequestValid Verdict = iota
	// VerdictAccepted means a reply block passed validation and was
	// not already present in the query's BlockGroup.
	VerdictAccepted
	// VerdictDuplicate means a reply block duplicates one already
	// seen along this query path.
	VerdictDuplicate
	// VerdictInvalid means a reply block failed PoW or signature
	// validation.
	VerdictInvalid
)

// Plugin is the capability set a DHT block layer registers at
// start-up: get_key, evaluate and create_group, gathered behind one
// struct.
type Plugin struct {
	Difficulty    int
	EpochDuration time.Duration
}

// NewPlugin constructs the block-layer plugin capability set.
func NewPlugin(difficulty int, epochDuration time.Duration) *Plugin {
	return &Plugin{Difficulty: difficulty, EpochDuration: epochDuration}
}

// GetKey computes hash(PublicKey) from a well-formed revocation
// block, rejecting blocks of the wrong size.
func (p *Plugin) GetKey(blockBytes []byte) (store.Key, error) {
	if len(blockBytes) != wire.RecordSize {
		return store.Key{}, ErrWrongSize
	}
	rec, err := wire.RecordFromBytes(blockBytes)
	if err != nil {
		return store.Key{}, err
	}
	return store.HashPublicKey(rec.PublicKey), nil
}

// Evaluate validates an incoming query/reply pair against group. If
// replyBlock is nil, only the query itself is checked for being
// syntactically valid. Otherwise replyBlock must be exactly one
// record's worth of bytes, pass Check against the configured
// difficulty, and not already appear in group; a match is marked
// VerdictDuplicate and discarded.
func (p *Plugin) Evaluate(group *BlockGroup, query []byte, replyBlock []byte) (Verdict, *wire.RevocationRecord, error) {
	if len(query) != 32 {
		return VerdictInvalid, nil, ErrWrongSize
	}
	if replyBlock == nil {
		return VerdictRequestValid, nil, nil
	}

	if len(replyBlock) != wire.RecordSize {
		return VerdictInvalid, nil, ErrWrongSize
	}
	rec, err := wire.RecordFromBytes(replyBlock)
	if err != nil {
		return VerdictInvalid, nil, err
	}
	if err := pow.Check(rec, p.Difficulty, p.EpochDuration); err != nil {
		log.Debugf("rejecting reply block: %v", err)
		return VerdictInvalid, nil, err
	}

	key := store.HashPublicKey(rec.PublicKey)
	if group.Contains(key[:]) {
		return VerdictDuplicate, rec, nil
	}
	group.Mark(key[:])
	return VerdictAccepted, rec, nil
}

// CreateGroup constructs a fresh BlockGroup. Exactly one of
// expectedElements or explicitBits should be non-zero; if both are
// given, explicitBits wins.
func (p *Plugin) CreateGroup(expectedElements, explicitBits uint64) (*BlockGroup, error) {
	if explicitBits > 0 {
		return NewGroupFromBitSize(explicitBits)
	}
	return NewGroupFromElementCount(expectedElements)
}
