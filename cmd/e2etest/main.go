// Command e2etest runs the transfer scenario against a ledger node started in
// process: Alice, funded at genesis, pays Bob through the HTTP API and the
// resulting balances are decrypted by each party.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/confidential-transfers/api"
	"github.com/vocdoni/confidential-transfers/api/client"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/config"
	"github.com/vocdoni/confidential-transfers/ledger"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/service"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/types"
	"github.com/vocdoni/confidential-transfers/wallet"
	"github.com/vocdoni/confidential-transfers/zk"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

const (
	initialBalance = 100
	amount         = 10
	fee            = 1
)

func main() {
	ccsHash := flag.String("ccsHash", "", "cached constraint system hash, runs the setup if empty")
	pkHash := flag.String("pkHash", "", "cached proving key hash")
	vkHash := flag.String("vkHash", "", "cached verifying key hash")
	constraintsLog2 := flag.Int("constraintsLog2", config.DefaultSetupConstraintsLog2, "log2 of the setup capacity")
	logLevel := flag.String("logLevel", "debug", "log level (debug, info, warn, error)")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pk, vk, err := loadKeys(ctx, *ccsHash, *pkHash, *vkHash, *constraintsLog2)
	if err != nil {
		log.Fatal(err)
	}

	alice, err := wallet.FromSeed([]byte("alice"), pk, 0)
	if err != nil {
		log.Fatal(err)
	}
	bob, err := wallet.FromSeed([]byte("bob"), nil, 0)
	if err != nil {
		log.Fatal(err)
	}
	collector, err := wallet.FromSeed([]byte("collector"), nil, 0)
	if err != nil {
		log.Fatal(err)
	}

	// start the ledger node
	dir, err := os.MkdirTemp("", "e2etest")
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warnw("could not remove data dir", "dir", dir, "error", err.Error())
		}
	}()
	database, err := metadb.New(db.TypePebble, filepath.Join(dir, "db"))
	if err != nil {
		log.Fatal(err)
	}
	stg, err := storage.New(database)
	if err != nil {
		log.Fatal(err)
	}
	defer stg.Close()
	l, err := ledger.New(stg, vk, ledger.Config{FeeCollector: collector.PublicKey()})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := l.ApplyGenesis(&ledger.Genesis{
		VerifyingKeyHash: vk.Hash(),
		Accounts:         []ledger.GenesisAccount{{Key: alice.Address(), Amount: initialBalance}},
	}); err != nil {
		log.Fatal(err)
	}
	apiService := service.NewAPI(l, vk.Hash(), "127.0.0.1", 0)
	if err := apiService.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer apiService.Stop()

	cli, err := client.New(fmt.Sprintf("http://%s", apiService.Addr()))
	if err != nil {
		log.Fatal(err)
	}
	info, err := cli.Info()
	if err != nil {
		log.Fatal(err)
	}
	if info.VerifyingKeyHash.String() != vk.Hash().String() {
		log.Fatalf("node runs verifying key %s, expected %s", info.VerifyingKeyHash, vk.Hash())
	}
	log.Infow("ledger node ready", "addr", apiService.Addr().String(), "vkHash", info.VerifyingKeyHash.String())

	// Alice pays Bob
	account, err := cli.Account(alice.PublicKey())
	if err != nil {
		log.Fatal(err)
	}
	start := time.Now()
	st, proof, err := alice.Transfer(&wallet.Account{Balance: account.Balance, Nonce: account.Nonce},
		bob.PublicKey(), collector.PublicKey(), amount, fee)
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("transfer proved", "took", time.Since(start).String())
	receipt, err := cli.SubmitTransfer(st, proof)
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("transfer applied", "id", receipt.ID.String(), "root", receipt.StateRoot.String())

	// the same transfer must not be applied twice
	if _, err := cli.SubmitTransfer(st, proof); !errors.Is(err, api.ErrStaleNonce) {
		log.Fatalf("replayed transfer not rejected as stale: %v", err)
	}

	for _, check := range []struct {
		name   string
		wallet *wallet.Wallet
		want   uint64
		nonce  uint64
	}{
		{"alice", alice, initialBalance - amount - fee, 1},
		{"bob", bob, amount, 0},
		{"collector", collector, fee, 0},
	} {
		if err := checkAccount(cli, check.wallet, check.want, check.nonce); err != nil {
			log.Fatalf("%s: %v", check.name, err)
		}
		log.Infow("balance checked", "account", check.name, "balance", check.want)
	}

	if _, err := cli.Transfer(receipt.ID); err != nil {
		log.Fatal(err)
	}
	log.Infow("end to end test passed")
}

// checkAccount decrypts the balance of the wallet account and checks it
// together with its nonce and its inclusion in the state tree.
func checkAccount(cli *client.HTTPclient, w *wallet.Wallet, balance, nonce uint64) error {
	account, err := cli.Account(w.PublicKey())
	if err != nil {
		return err
	}
	got, err := w.Balance(account.Balance)
	if err != nil {
		return err
	}
	if got != balance {
		return fmt.Errorf("balance %d, expected %d", got, balance)
	}
	if account.Nonce != nonce {
		return fmt.Errorf("nonce %d, expected %d", account.Nonce, nonce)
	}
	proof, err := cli.AccountProof(w.PublicKey())
	if err != nil {
		return err
	}
	ok, err := proof.VerifyAccount(&storage.Account{Key: account.Key, Balance: account.Balance, Nonce: account.Nonce})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account not included in the state root")
	}
	return nil
}

// loadKeys loads the circuit keys from the artifact cache, or runs the setup
// and stores them if no hashes are given.
func loadKeys(ctx context.Context, ccsHash, pkHash, vkHash string, constraintsLog2 int) (*zk.ProvingKey, *zk.VerifyingKey, error) {
	if ccsHash == "" || pkHash == "" || vkHash == "" {
		log.Infow("running setup", "constraintsLog2", constraintsLog2)
		pk, vk, err := zk.Setup(zk.SetupConfig{MaxConstraintsLog2: constraintsLog2})
		if err != nil {
			return nil, nil, err
		}
		return pk, vk, nil
	}
	var hashes [3][]byte
	for i, h := range []string{ccsHash, pkHash, vkHash} {
		b, err := types.HexStringToHexBytes(h)
		if err != nil {
			return nil, nil, err
		}
		hashes[i] = b
	}
	artifacts := circuits.NewCircuitArtifacts(
		&circuits.Artifact{Hash: hashes[0]},
		&circuits.Artifact{Hash: hashes[1]},
		&circuits.Artifact{Hash: hashes[2]},
	)
	if err := artifacts.LoadAll(ctx); err != nil {
		return nil, nil, err
	}
	pk, vk, err := zk.LoadArtifacts(artifacts)
	if err != nil {
		return nil, nil, err
	}
	if pk == nil || vk == nil {
		return nil, nil, fmt.Errorf("missing circuit keys")
	}
	return pk, vk, nil
}
