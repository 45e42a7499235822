package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/vocdoni/confidential-transfers/config"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/types"
)

// GenesisAccount is an account credited at genesis. Genesis amounts are
// public.
type GenesisAccount struct {
	Key    types.HexBytes `json:"key"`
	Amount uint64         `json:"amount"`
}

// Genesis is the initial state of the ledger.
type Genesis struct {
	// VerifyingKeyHash, when set, must match the verifying key the ledger is
	// started with.
	VerifyingKeyHash types.HexBytes  `json:"verifyingKeyHash,omitempty"`
	Accounts         []GenesisAccount `json:"accounts"`
}

// LoadGenesis reads a genesis JSON file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read genesis: %w", err)
	}
	g := &Genesis{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("could not decode genesis: %w", err)
	}
	return g, nil
}

// genesisRecord is stored as metadata once the genesis is applied.
type genesisRecord struct {
	StateRoot types.HexBytes `json:"stateRoot"`
	Accounts  int            `json:"accounts"`
}

// ApplyGenesis creates the genesis accounts with their balances encrypted
// under their own keys, and the fee collector account if configured. It is
// applied once: on a ledger that already has a genesis it returns false and
// does nothing. All the accounts are created in one storage update.
func (l *Ledger) ApplyGenesis(g *Genesis) (bool, error) {
	var done genesisRecord
	if err := l.stg.Metadata(config.GenesisMetadataKey, &done); err == nil {
		log.Infow("genesis already applied", "root", done.StateRoot.String(), "accounts", done.Accounts)
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	accounts := make([]*storage.Account, 0, len(g.Accounts)+1)
	for i, ga := range g.Accounts {
		// balances must stay decryptable and provable by the 32 bit circuit
		if ga.Amount > l.conf.DecryptionBound || ga.Amount > uint64(transfer.MaxAmount) {
			return false, reject(DecryptionOutOfRange, fmt.Errorf("genesis account %d amount %d", i, ga.Amount))
		}
		key := curves.New(elgamal.DefaultCurve)
		if err := key.Unmarshal(ga.Key); err != nil {
			if errors.Is(err, ecc.ErrNotInSubgroup) {
				return false, reject(SubgroupCheckFailed, fmt.Errorf("genesis account %d: %w", i, err))
			}
			return false, reject(InvalidEncoding, fmt.Errorf("genesis account %d: %w", i, err))
		}
		if err := ecc.CheckKey(key); err != nil {
			return false, reject(SubgroupCheckFailed, fmt.Errorf("genesis account %d: %w", i, err))
		}
		balance, err := elgamal.NewCiphertext(key).Encrypt(new(big.Int).SetUint64(ga.Amount), key, nil)
		if err != nil {
			return false, err
		}
		account := storage.NewAccount(key)
		account.Balance = balance
		accounts = append(accounts, account)
	}
	if l.conf.FeeCollector != nil {
		accounts = append(accounts, storage.NewAccount(l.conf.FeeCollector))
	}

	record := genesisRecord{Accounts: len(accounts)}
	if err := l.stg.Update(func(tx *storage.Tx) error {
		for _, a := range accounts {
			if _, err := tx.Account(a.Key); err == nil {
				// the fee collector may also be a genesis account
				continue
			} else if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if err := tx.SetAccount(a); err != nil {
				return err
			}
		}
		root, err := tx.StateRoot()
		if err != nil {
			return err
		}
		record.StateRoot = root
		return tx.SetMetadata(config.GenesisMetadataKey, record)
	}); err != nil {
		return false, fmt.Errorf("could not apply genesis: %w", err)
	}
	log.Infow("genesis applied", "root", record.StateRoot.String(), "accounts", record.Accounts)
	return true, nil
}

// ErrVerifyingKeyMismatch is returned by BindVerifyingKey when the ledger
// state was created with a different verifying key.
var ErrVerifyingKeyMismatch = errors.New("verifying key does not match the ledger state")

// BindVerifyingKey records the hash of the verifying key the ledger accepts
// proofs for. The first call stores it; later calls fail with
// ErrVerifyingKeyMismatch if hash differs from the stored one.
func (l *Ledger) BindVerifyingKey(hash types.HexBytes) error {
	var stored types.HexBytes
	err := l.stg.Metadata(config.VerifyingKeyMetadataKey, &stored)
	switch {
	case err == nil:
		if !bytes.Equal(stored, hash) {
			return fmt.Errorf("%w: stored %s, got %s", ErrVerifyingKeyMismatch, stored, hash)
		}
		return nil
	case errors.Is(err, storage.ErrNotFound):
		log.Infow("binding verifying key", "hash", hash.String())
		return l.stg.SetMetadata(config.VerifyingKeyMetadataKey, hash)
	default:
		return err
	}
}
