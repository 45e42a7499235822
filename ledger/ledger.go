// Package ledger applies confidential transfers to the encrypted account
// state. A transfer is checked against the stored sender account, its proof
// is verified and then every balance it touches is updated in a single
// storage transaction, or none is.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/confidential-transfers/config"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/types"
	"github.com/vocdoni/confidential-transfers/zk"
)

// Verifier checks transfer proofs. *zk.VerifyingKey implements it.
type Verifier interface {
	Verify(st *transfer.Statement, proof *zk.Proof) bool
}

// Config holds the ledger options.
type Config struct {
	// FeeCollector, when set, is the only account that may receive fees.
	FeeCollector ecc.Point
	// AllowSelfTransfer accepts transfers where the sender is the recipient.
	AllowSelfTransfer bool
	// DecryptionBound is the largest plaintext value accepted for genesis
	// balances. Zero means config.DefaultDecryptionBound.
	DecryptionBound uint64
}

// Ledger is the state machine of the confidential accounts. The verifier is
// read only and shared by every call, writes are serialized by the storage.
type Ledger struct {
	stg      *storage.Storage
	verifier Verifier
	conf     Config
}

// Receipt is returned for every applied transfer.
type Receipt struct {
	ID        types.HexBytes `json:"id"`
	Sender    types.HexBytes `json:"sender"`
	Nonce     uint64         `json:"nonce"`
	StateRoot types.HexBytes `json:"stateRoot"`
}

// New returns a ledger over stg that checks proofs with verifier.
func New(stg *storage.Storage, verifier Verifier, conf Config) (*Ledger, error) {
	if stg == nil {
		return nil, fmt.Errorf("missing storage")
	}
	if verifier == nil {
		return nil, fmt.Errorf("missing verifier")
	}
	if conf.DecryptionBound == 0 {
		conf.DecryptionBound = config.DefaultDecryptionBound
	}
	if conf.FeeCollector != nil {
		if err := ecc.CheckKey(conf.FeeCollector); err != nil {
			return nil, reject(SubgroupCheckFailed, fmt.Errorf("invalid fee collector key: %w", err))
		}
	}
	return &Ledger{stg: stg, verifier: verifier, conf: conf}, nil
}

// Config returns the ledger options.
func (l *Ledger) Config() Config {
	return l.conf
}

// TransferID returns the journal id of a transfer, the keccak256 hash of the
// statement encoding followed by the proof encoding.
func TransferID(st *transfer.Statement, proof *zk.Proof) types.HexBytes {
	return crypto.Keccak256(st.Encode(), proof.Bytes())
}

// checkStatement runs the checks that do not depend on the ledger state.
func (l *Ledger) checkStatement(st *transfer.Statement, proof *zk.Proof) error {
	if proof == nil {
		return reject(InvalidEncoding, fmt.Errorf("missing proof"))
	}
	if err := st.Validate(); err != nil {
		if errors.Is(err, ecc.ErrNotInSubgroup) {
			return reject(SubgroupCheckFailed, err)
		}
		return reject(InvalidEncoding, err)
	}
	if l.conf.FeeCollector != nil && !l.conf.FeeCollector.Equal(st.FeeCollector) {
		return reject(FeeCollectorMismatch, nil)
	}
	if !l.conf.AllowSelfTransfer && st.Sender.Equal(st.Recipient) {
		return reject(SelfTransferDisallowed, nil)
	}
	return nil
}

// checkSender compares the statement with the stored sender account.
func checkSender(st *transfer.Statement, sender *storage.Account) error {
	if st.Nonce != sender.Nonce+1 {
		return reject(StaleNonce, fmt.Errorf("expected nonce %d, got %d", sender.Nonce+1, st.Nonce))
	}
	if !st.BalanceBefore.Equal(sender.Balance) {
		return reject(BalanceMismatch, nil)
	}
	return nil
}

func (l *Ledger) verifyProof(st *transfer.Statement, proof *zk.Proof) error {
	if !l.verifier.Verify(st, proof) {
		return reject(ProofRejected, nil)
	}
	return nil
}

// VerifyTransfer checks the transfer against the committed state and
// verifies its proof, without applying it.
func (l *Ledger) VerifyTransfer(st *transfer.Statement, proof *zk.Proof) error {
	if err := l.checkStatement(st, proof); err != nil {
		return err
	}
	sender, err := l.account(st.Sender)
	if err != nil {
		return err
	}
	if err := checkSender(st, sender); err != nil {
		return err
	}
	return l.verifyProof(st, proof)
}

// ApplyTransfer verifies the transfer and applies it: the sender balance is
// replaced by the statement balance after, its nonce is incremented and the
// recipient and fee ciphertexts are added to the recipient and fee collector
// balances. Recipient and fee collector accounts are created if they do not
// exist. Any error leaves the state unchanged; rejections are *RejectError.
func (l *Ledger) ApplyTransfer(st *transfer.Statement, proof *zk.Proof) (*Receipt, error) {
	if err := l.VerifyTransfer(st, proof); err != nil {
		logReject(st, err)
		return nil, err
	}
	receipt, err := l.commit(st, proof)
	if err != nil {
		logReject(st, err)
		return nil, err
	}
	return receipt, nil
}

// ApplyEncodedTransfer decodes a statement and a proof from their canonical
// encodings and applies the transfer.
func (l *Ledger) ApplyEncodedTransfer(statement, proof []byte) (*Receipt, error) {
	st, p, err := DecodeTransfer(statement, proof)
	if err != nil {
		return nil, err
	}
	return l.ApplyTransfer(st, p)
}

// DecodeTransfer decodes a statement and a proof, mapping decoding failures
// to InvalidEncoding and SubgroupCheckFailed rejections.
func DecodeTransfer(statement, proof []byte) (*transfer.Statement, *zk.Proof, error) {
	st, err := transfer.DecodeStatement(statement)
	if err != nil {
		if errors.Is(err, ecc.ErrNotInSubgroup) {
			return nil, nil, reject(SubgroupCheckFailed, err)
		}
		return nil, nil, reject(InvalidEncoding, err)
	}
	p, err := zk.ProofFromBytes(proof)
	if err != nil {
		return nil, nil, reject(InvalidEncoding, err)
	}
	return st, p, nil
}

// commit applies a verified transfer in one storage update. The sender nonce
// and balance are checked again inside the update, so a transfer checked
// against a state that changed in between is rejected instead of applied.
func (l *Ledger) commit(st *transfer.Statement, proof *zk.Proof) (*Receipt, error) {
	receipt := &Receipt{
		ID:     TransferID(st, proof),
		Sender: st.Sender.Marshal(),
		Nonce:  st.Nonce,
	}
	err := l.stg.Update(func(tx *storage.Tx) error {
		sender, err := tx.Account(receipt.Sender)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return reject(AccountNotFound, nil)
			}
			return err
		}
		if err := checkSender(st, sender); err != nil {
			return err
		}
		sender.Balance = st.BalanceAfter.Clone()
		sender.Nonce = st.Nonce
		if err := tx.SetAccount(sender); err != nil {
			return err
		}
		// the credits read the account back, so aliased accounts see the
		// previous writes of this update
		if err := credit(tx, st.Recipient, st.RecipientAmount); err != nil {
			return err
		}
		if err := credit(tx, st.FeeCollector, st.FeeAmount); err != nil {
			return err
		}
		if receipt.StateRoot, err = tx.StateRoot(); err != nil {
			return err
		}
		if err := tx.AddTransfer(&storage.TransferRecord{
			ID:        receipt.ID,
			Statement: st.Encode(),
			Proof:     proof.Bytes(),
			Sender:    receipt.Sender,
			Nonce:     st.Nonce,
			StateRoot: receipt.StateRoot,
			Timestamp: time.Now().Unix(),
		}); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return reject(StaleNonce, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if _, ok := Reason(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("could not apply transfer: %w", err)
	}
	log.Infow("transfer applied",
		"id", receipt.ID.String(),
		"sender", receipt.Sender.String(),
		"nonce", receipt.Nonce,
		"root", receipt.StateRoot.String())
	return receipt, nil
}

// credit adds amount to the balance of the account with the given key,
// creating the account with a zero balance if needed.
func credit(tx *storage.Tx, key ecc.Point, amount *elgamal.Ciphertext) error {
	account, err := tx.Account(key.Marshal())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		account = storage.NewAccount(key)
	case err != nil:
		return err
	}
	account.Balance = new(elgamal.Ciphertext).Add(account.Balance, amount)
	return tx.SetAccount(account)
}

func logReject(st *transfer.Statement, err error) {
	reason, ok := Reason(err)
	if !ok {
		log.Warnw("could not apply transfer", "error", err.Error())
		return
	}
	keyvals := []any{"reason", reason.String()}
	if st != nil && st.Sender != nil {
		keyvals = append(keyvals, "sender", types.HexBytes(st.Sender.Marshal()).String(), "nonce", st.Nonce)
	}
	log.Debugw("transfer rejected", keyvals...)
}

// account returns the stored account of key, or an AccountNotFound
// rejection.
func (l *Ledger) account(key ecc.Point) (*storage.Account, error) {
	a, err := l.stg.Account(key.Marshal())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, reject(AccountNotFound, nil)
		}
		return nil, err
	}
	return a, nil
}

// Account returns the stored account of key.
func (l *Ledger) Account(key ecc.Point) (*storage.Account, error) {
	return l.account(key)
}

// CreateAccount registers a new account for key with a zero balance. Funded
// accounts are only created by the genesis, every other balance change goes
// through an applied transfer. It fails with storage.ErrAlreadyExists if the
// account exists.
func (l *Ledger) CreateAccount(key ecc.Point) (*storage.Account, error) {
	if key == nil {
		return nil, reject(InvalidEncoding, fmt.Errorf("missing key"))
	}
	if err := ecc.CheckKey(key); err != nil {
		return nil, reject(SubgroupCheckFailed, err)
	}
	account := storage.NewAccount(key)
	if err := l.stg.Update(func(tx *storage.Tx) error {
		if _, err := tx.Account(account.Key); err == nil {
			return storage.ErrAlreadyExists
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return tx.SetAccount(account)
	}); err != nil {
		return nil, err
	}
	log.Infow("account created", "key", account.Key.String())
	return account, nil
}

// Transfer returns the journal record of an applied transfer.
func (l *Ledger) Transfer(id []byte) (*storage.TransferRecord, error) {
	return l.stg.Transfer(id)
}

// StateRoot returns the root of the account state tree.
func (l *Ledger) StateRoot() (types.HexBytes, error) {
	return l.stg.StateRoot()
}

// AccountProof returns the state tree proof of the account of key.
func (l *Ledger) AccountProof(key ecc.Point) (*storage.AccountProof, error) {
	return l.stg.AccountProof(key.Marshal())
}

// CountAccounts returns the number of accounts in the ledger.
func (l *Ledger) CountAccounts() (int, error) {
	return l.stg.CountAccounts()
}
