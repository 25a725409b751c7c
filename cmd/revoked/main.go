// Command revoked is the revocation core's service entry point: it
// loads configuration and a persistent node identity, replays the
// durable log, and runs the Service event loop until signalled to
// stop. Wiring an actual peer-network transport and client-facing
// listener onto the Service's HandlePeerConnect/HandleP2PMessage and
// rpc.Handler methods is the embedding application's job (generic
// transport is an external collaborator of this core, not part of
// it); this binary only demonstrates bringing the core itself up and
// down cleanly, bracketing its storage layer around a blocking wait
// on a shutdown channel.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"

	"github.com/revocor/revocor/block"
	"github.com/revocor/revocor/crypto"
	"github.com/revocor/revocor/peerset"
	"github.com/revocor/revocor/pow"
	"github.com/revocor/revocor/revocation"
	"github.com/revocor/revocor/rpc"
	"github.com/revocor/revocor/store"
	"github.com/revocor/revocor/wire"
)

var shutdownChannel = make(chan struct{})

// initLoggers builds a single stdout-backed btclog.Backend and
// registers a subsystem logger with every package that exposes one,
// mirroring lnd's own top-level subsystem-logger registration.
func initLoggers(level btclog.Level) {
	backend := btclog.NewBackend(os.Stdout)

	register := func(use func(btclog.Logger), tag string) {
		logger := backend.Logger(tag)
		logger.SetLevel(level)
		use(logger)
	}

	register(wire.UseLogger, "WIRE")
	register(crypto.UseLogger, "CRYP")
	register(pow.UseLogger, "POWC")
	register(block.UseLogger, "BLCK")
	register(store.UseLogger, "STOR")
	register(rpc.UseLogger, "RPCS")
	register(peerset.UseLogger, "PEER")
	register(revocation.UseLogger, "RVCN")
}

// cliOptions is the flag set accepted on the command line, layered
// over revocation.Config plus the identity key path.
type cliOptions struct {
	WorkBits      int    `long:"workbits" description:"minimum required average bit-score" default:"20"`
	EpochDuration string `long:"epochduration" description:"duration one epoch of validity adds" default:"168h"`
	Database      string `long:"database" description:"path to the durable revocation log" default:"revocations.log"`
	ListenAddr    string `long:"listenaddr" description:"peer-network listen address" default:"0.0.0.0:5872"`
	IdentityKey   string `long:"identitykey" description:"path to this node's persisted identity key" default:"identity.key"`
}

func revokedMain() error {
	var opts cliOptions
	if _, err := flags.Parse(&opts); err != nil {
		return err
	}

	initLoggers(btclog.LevelInfo)

	cfg, err := buildConfig(&opts)
	if err != nil {
		return err
	}

	identity, err := loadOrCreateIdentity(opts.IdentityKey)
	if err != nil {
		return fmt.Errorf("revoked: identity key: %w", err)
	}

	svc, err := revocation.NewService(cfg, identity, nil, revocation.NopStats{})
	if err != nil {
		return fmt.Errorf("revoked: start-up: %w", err)
	}
	go svc.Run()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		select {
		case <-interrupt:
			close(shutdownChannel)
		case <-shutdownChannel:
		}
	}()

	<-shutdownChannel
	return svc.Shutdown()
}

func main() {
	if err := revokedMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildConfig(opts *cliOptions) (*revocation.Config, error) {
	epochDuration, err := time.ParseDuration(opts.EpochDuration)
	if err != nil {
		return nil, fmt.Errorf("revoked: bad epochduration: %w", err)
	}
	cfg := &revocation.Config{
		WorkBits:      opts.WorkBits,
		EpochDuration: epochDuration,
		Database:      opts.Database,
		ListenAddr:    opts.ListenAddr,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadOrCreateIdentity(path string) (*crypto.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		return crypto.ParsePrivateKey(raw)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, priv.Serialize(), 0600); err != nil {
		return nil, err
	}
	return priv, nil
}
