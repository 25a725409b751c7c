// Command revoke is a stand-alone developer tool for producing a
// signed, fully-worked RevocationRecord offline, without running the
// revocation service. The record's PoW search can be started,
// interrupted with ^C, and resumed later from the same output file,
// since a partially-searched record's on-disk image already carries
// its signed timestamp and public key.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/revocor/revocor/crypto"
	"github.com/revocor/revocor/pow"
	"github.com/revocor/revocor/wire"
)

type cliOptions struct {
	KeyPath       string `short:"k" long:"key" description:"path to the private signing key (created if it does not exist)" required:"true"`
	OutputPath    string `short:"f" long:"file" description:"path to write/resume the revocation record" required:"true"`
	Bits          int    `short:"b" long:"bits" description:"target average leading-zero-bit difficulty" default:"20"`
	Epochs        int    `short:"e" long:"epochs" description:"number of validity epochs to compute for" default:"1"`
	EpochDuration string `short:"d" long:"epochduration" description:"duration of one validity epoch" default:"168h"`
	Progress      bool   `short:"p" long:"progress" description:"print progress while searching"`
}

func revokeMain() error {
	var opts cliOptions
	if _, err := flags.Parse(&opts); err != nil {
		return err
	}
	epochDuration, err := time.ParseDuration(opts.EpochDuration)
	if err != nil {
		return fmt.Errorf("revoke: bad epochduration: %w", err)
	}

	priv, err := loadOrCreateKey(opts.KeyPath)
	if err != nil {
		return fmt.Errorf("revoke: key: %w", err)
	}

	builder, err := loadOrStartBuilder(opts.OutputPath, priv, opts.Epochs, opts.Bits, epochDuration)
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	fmt.Printf("searching for a %d-bit average proof of work (^C to stop and save progress)\n", opts.Bits)
	rounds := 0
	for {
		select {
		case <-interrupt:
			fmt.Println("\ninterrupted, saving progress")
			return saveRecord(opts.OutputPath, builder.Current())
		default:
		}

		if builder.Round() {
			rec := builder.Current()
			if err := saveRecord(opts.OutputPath, rec); err != nil {
				return err
			}
			fmt.Printf("done after %d rounds: average score %d\n", rounds, pow.Score(&rec))
			return nil
		}
		rounds++
		if opts.Progress && rounds%100000 == 0 {
			fmt.Printf("%d rounds so far\n", rounds)
		}
	}
}

func main() {
	if err := revokeMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadOrCreateKey(path string) (*crypto.PrivateKey, error) {
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
	if err := os.WriteFile(path, priv.Serialize(), 0600); err != nil {
		return nil, err
	}
	return priv, nil
}

// loadOrStartBuilder resumes a prior search from outputPath if it
// already holds a signed (possibly incomplete) record, or begins a
// fresh one otherwise.
func loadOrStartBuilder(outputPath string, priv *crypto.PrivateKey, epochs, bits int, epochDuration time.Duration) (*pow.Builder, error) {
	raw, err := os.ReadFile(outputPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		return pow.NewFromPrivateKey(priv, epochs, bits, epochDuration), nil
	}

	rec, err := wire.RecordFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("existing file is not a valid record: %w", err)
	}
	fmt.Println("resuming search from existing file")
	return pow.NewFromRecord(*rec, epochs, bits, epochDuration), nil
}

func saveRecord(path string, rec wire.RevocationRecord) error {
	return os.WriteFile(path, rec.Bytes(), 0600)
}
