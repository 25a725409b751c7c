package crypto

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the subsystem logger used by the crypto package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
