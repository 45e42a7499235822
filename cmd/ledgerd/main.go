// Command ledgerd runs a confidential transfer ledger node: it opens the
// ledger state, applies the genesis on first start and serves the HTTP API
// until it receives an interrupt signal.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/config"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/ledger"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/service"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/types"
	"github.com/vocdoni/confidential-transfers/zk"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func defaultDataDir() string {
	if dir := os.Getenv(config.DataDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultDataDir
	}
	return filepath.Join(home, config.DefaultDataDir)
}

func main() {
	dataDir := flag.String("datadir", defaultDataDir(), "ledger data directory")
	artifactsDir := flag.String("artifactsDir", circuits.BaseDir, "artifact cache directory")
	vkHash := flag.String("vkHash", "", "sha256 hash of the verifying key (required)")
	vkURL := flag.String("vkURL", "", "remote URL to download the verifying key from if it is not cached")
	genesisPath := flag.String("genesis", "", "genesis JSON file, applied on first start")
	feeCollector := flag.String("feeCollector", "", "hex encoded account key of the fee collector")
	allowSelfTransfer := flag.Bool("allowSelfTransfer", false, "accept transfers to the sender's own account")
	decryptionBound := flag.Uint64("decryptionBound", config.DefaultDecryptionBound, "largest genesis balance")
	host := flag.String("host", config.DefaultAPIHost, "API listen host")
	port := flag.Int("port", config.DefaultAPIPort, "API listen port")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	logOutput := flag.String("logOutput", "stdout", "log output (stdout, stderr or a file path)")
	flag.Parse()
	log.Init(*logLevel, *logOutput, nil)

	if *vkHash == "" {
		log.Fatal("--vkHash is required")
	}
	hash, err := types.HexStringToHexBytes(*vkHash)
	if err != nil {
		log.Fatalf("invalid verifying key hash: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// load the verifying key from the artifact cache
	circuits.BaseDir = *artifactsDir
	artifacts := circuits.NewCircuitArtifacts(nil, nil, &circuits.Artifact{RemoteURL: *vkURL, Hash: hash})
	if err := artifacts.LoadAll(ctx); err != nil {
		log.Fatalf("could not load verifying key: %v", err)
	}
	_, vk, err := zk.LoadArtifacts(artifacts)
	if err != nil {
		log.Fatalf("could not decode verifying key: %v", err)
	}

	var genesis *ledger.Genesis
	if *genesisPath != "" {
		if genesis, err = ledger.LoadGenesis(*genesisPath); err != nil {
			log.Fatal(err)
		}
		if len(genesis.VerifyingKeyHash) > 0 && genesis.VerifyingKeyHash.String() != vk.Hash().String() {
			log.Fatalf("genesis verifying key %s does not match %s", genesis.VerifyingKeyHash, vk.Hash())
		}
	}

	conf := ledger.Config{
		AllowSelfTransfer: *allowSelfTransfer,
		DecryptionBound:   *decryptionBound,
	}
	if *feeCollector != "" {
		if conf.FeeCollector, err = parseKey(*feeCollector); err != nil {
			log.Fatalf("invalid fee collector key: %v", err)
		}
	}

	database, err := metadb.New(db.TypePebble, filepath.Join(*dataDir, "db"))
	if err != nil {
		log.Fatal(err)
	}
	stg, err := storage.New(database)
	if err != nil {
		log.Fatal(err)
	}
	defer stg.Close()

	l, err := ledger.New(stg, vk, conf)
	if err != nil {
		log.Fatal(err)
	}
	if err := l.BindVerifyingKey(vk.Hash()); err != nil {
		log.Fatal(err)
	}
	if genesis != nil {
		if _, err := l.ApplyGenesis(genesis); err != nil {
			log.Fatal(err)
		}
	}
	root, err := l.StateRoot()
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("ledger ready", "datadir", *dataDir, "root", root.String(), "vkHash", vk.Hash().String())

	apiService := service.NewAPI(l, vk.Hash(), *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer apiService.Stop()

	<-ctx.Done()
	log.Infow("shutting down")
}

// parseKey decodes a hex encoded account key.
func parseKey(s string) (ecc.Point, error) {
	data, err := types.HexStringToHexBytes(s)
	if err != nil {
		return nil, err
	}
	key := curves.New(elgamal.DefaultCurve)
	if err := key.Unmarshal(data); err != nil {
		return nil, err
	}
	return key, ecc.CheckKey(key)
}
