package rpc

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the subsystem logger used by the rpc package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
