package storage

import (
	"errors"
	"fmt"

	"github.com/vocdoni/confidential-transfers/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Tx gives access to the state inside Storage.Update. Reads see the writes
// already done in the same transaction.
type Tx struct {
	s         *Storage
	accounts  db.WriteTx
	transfers db.WriteTx
	state     db.WriteTx
	metadata  db.WriteTx
}

func newTx(s *Storage, wTx db.WriteTx) *Tx {
	return &Tx{
		s:         s,
		accounts:  prefixeddb.NewPrefixedWriteTx(wTx, accountPrefix),
		transfers: prefixeddb.NewPrefixedWriteTx(wTx, transferPrefix),
		state:     prefixeddb.NewPrefixedWriteTx(wTx, statePrefix),
		metadata:  prefixeddb.NewPrefixedWriteTx(wTx, metadataPrefix),
	}
}

// Account returns the account with the given key. It returns ErrNotFound if
// the account does not exist.
func (tx *Tx) Account(key []byte) (*Account, error) {
	return getAccount(tx.accounts, key)
}

// SetAccount creates or updates the account and its leaf in the state tree.
func (tx *Tx) SetAccount(a *Account) error {
	if len(a.Key) != types.StateKeyLen {
		return fmt.Errorf("invalid account key length %d", len(a.Key))
	}
	val, err := encodeArtifact(a)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	_, err = tx.accounts.Get(a.Key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		if err := tx.s.tree.AddWithTx(tx.state, a.Key, leafValue(val)); err != nil {
			return fmt.Errorf("add account leaf: %w", err)
		}
	case err != nil:
		return err
	default:
		if err := tx.s.tree.UpdateWithTx(tx.state, a.Key, leafValue(val)); err != nil {
			return fmt.Errorf("update account leaf: %w", err)
		}
	}
	return tx.accounts.Set(a.Key, val)
}

// AddTransfer appends a record to the transfer journal. It returns
// ErrAlreadyExists if a transfer with the same id was applied before.
func (tx *Tx) AddTransfer(r *TransferRecord) error {
	if _, err := tx.transfers.Get(r.ID); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	val, err := encodeArtifact(r)
	if err != nil {
		return fmt.Errorf("encode transfer: %w", err)
	}
	return tx.transfers.Set(r.ID, val)
}

// Transfer returns the journal record with the given id. It returns
// ErrNotFound if there is no such transfer.
func (tx *Tx) Transfer(id []byte) (*TransferRecord, error) {
	return getTransfer(tx.transfers, id)
}

// StateRoot returns the root of the state tree including the writes of the
// transaction.
func (tx *Tx) StateRoot() (types.HexBytes, error) {
	return tx.s.tree.RootWithTx(tx.state)
}

// SetMetadata stores value under key.
func (tx *Tx) SetMetadata(key string, value any) error {
	val, err := encodeArtifact(value)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return tx.metadata.Set([]byte(key), val)
}

func getAccount(r db.Reader, key []byte) (*Account, error) {
	data, err := r.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a := &Account{}
	if err := decodeArtifact(data, a); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return a, nil
}

func getTransfer(r db.Reader, id []byte) (*TransferRecord, error) {
	data, err := r.Get(id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r2 := &TransferRecord{}
	if err := decodeArtifact(data, r2); err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	return r2, nil
}
