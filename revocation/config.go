package revocation

import (
	"fmt"
	"time"

	"github.com/revocor/revocor/wire"
)

// Config is the start-up configuration, parsed with
// github.com/jessevdk/go-flags.
type Config struct {
	WorkBits      int           `long:"workbits" description:"Minimum required average bit-score (difficulty D); must be less than the PoW hash width in bits"`
	EpochDuration time.Duration `long:"epochduration" description:"Duration one epoch adds to a revocation's validity window"`
	Database      string        `long:"database" description:"Path to the durable append-only revocation log file"`
	ListenAddr    string        `long:"listenaddr" description:"Address the peer-network transport listens on"`
}

// ErrConfiguration wraps a start-up configuration problem: missing or
// out-of-range config is fatal at start-up.
type ErrConfiguration struct {
	Reason string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("revocation: configuration error: %s", e.Reason)
}

// Validate checks cfg against the bounds required for a working
// difficulty threshold, epoch duration and database path.
func (cfg *Config) Validate() error {
	if cfg.WorkBits <= 0 || cfg.WorkBits >= wire.PowHashSize*8 {
		return &ErrConfiguration{Reason: fmt.Sprintf(
			"WORKBITS must be in (0, %d), got %d", wire.PowHashSize*8, cfg.WorkBits)}
	}
	if cfg.EpochDuration <= 0 {
		return &ErrConfiguration{Reason: "EPOCH_DURATION must be positive"}
	}
	if cfg.Database == "" {
		return &ErrConfiguration{Reason: "DATABASE path must not be empty"}
	}
	return nil
}
