package wire

import "github.com/btcsuite/btclog"

// log is the subsystem logger for the wire package. It is disabled by
// default; callers wire in a real backend via UseLogger.
var log = btclog.Disabled

// UseLogger sets the subsystem logger used by the wire package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
