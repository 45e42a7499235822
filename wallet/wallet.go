// Package wallet holds the sender side of confidential transfers: it keeps
// the decryption key of an account, decrypts its balance and builds and
// proves transfers against the account state published by the ledger.
package wallet

import (
	"errors"
	"fmt"

	"github.com/vocdoni/confidential-transfers/config"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/types"
	"github.com/vocdoni/confidential-transfers/zk"
)

// ErrMissingProvingKey is returned by Transfer when the wallet has no
// proving key.
var ErrMissingProvingKey = errors.New("wallet has no proving key")

// Account is the public state of an account as published by the ledger.
type Account struct {
	Balance *elgamal.Ciphertext
	Nonce   uint64
}

// Wallet owns a key pair. The proving key is only needed to prove
// transfers.
type Wallet struct {
	keys       *elgamal.KeyPair
	provingKey *zk.ProvingKey
	bound      uint64
}

// New returns a wallet for keys. A zero bound means
// config.DefaultDecryptionBound.
func New(keys *elgamal.KeyPair, provingKey *zk.ProvingKey, bound uint64) *Wallet {
	if bound == 0 {
		bound = config.DefaultDecryptionBound
	}
	return &Wallet{keys: keys, provingKey: provingKey, bound: bound}
}

// FromSeed returns a wallet with the key pair derived from seed.
func FromSeed(seed []byte, provingKey *zk.ProvingKey, bound uint64) (*Wallet, error) {
	keys, err := elgamal.KeyPairFromSeed(curves.New(elgamal.DefaultCurve), seed)
	if err != nil {
		return nil, err
	}
	return New(keys, provingKey, bound), nil
}

// PublicKey returns the encryption key of the wallet, which is also its
// account key in the ledger.
func (w *Wallet) PublicKey() ecc.Point {
	return w.keys.PublicKey
}

// Address returns the encoded account key.
func (w *Wallet) Address() types.HexBytes {
	return w.keys.PublicKey.Marshal()
}

// Balance decrypts a balance ciphertext encrypted under the wallet key. It
// fails with elgamal.ErrDecryptionOutOfRange if the value is over the wallet
// bound.
func (w *Wallet) Balance(ct *elgamal.Ciphertext) (uint64, error) {
	return w.keys.Decrypt(ct, w.bound)
}

// NewTransfer builds the statement and witness of a transfer of amount to
// recipient paying fee to feeCollector, from the account state. Fresh
// randomness is sampled for every ciphertext. It fails with
// transfer.ErrInsufficientBalance if the balance does not cover the amount
// and the fee.
func (w *Wallet) NewTransfer(account *Account, recipient, feeCollector ecc.Point,
	amount, fee transfer.Amount,
) (*transfer.Statement, *transfer.Witness, error) {
	if account == nil || account.Balance == nil {
		return nil, nil, fmt.Errorf("missing account state")
	}
	value, err := w.Balance(account.Balance)
	if err != nil {
		return nil, nil, err
	}
	balance, err := transfer.AmountFromUint64(value)
	if err != nil {
		return nil, nil, err
	}
	return transfer.Build(&transfer.Params{
		Sender:       w.keys,
		Balance:      account.Balance,
		BalanceValue: balance,
		Nonce:        account.Nonce,
		Recipient:    recipient,
		FeeCollector: feeCollector,
		Amount:       amount,
		Fee:          fee,
	})
}

// Transfer builds a transfer like NewTransfer and proves it. The witness is
// zeroized before returning.
func (w *Wallet) Transfer(account *Account, recipient, feeCollector ecc.Point,
	amount, fee transfer.Amount,
) (*transfer.Statement, *zk.Proof, error) {
	if w.provingKey == nil {
		return nil, nil, ErrMissingProvingKey
	}
	st, witness, err := w.NewTransfer(account, recipient, feeCollector, amount, fee)
	if err != nil {
		return nil, nil, err
	}
	defer witness.Zeroize()
	proof, err := zk.Prove(w.provingKey, st, witness)
	if err != nil {
		return nil, nil, err
	}
	log.Debugw("transfer proved", "sender", w.Address().String(), "nonce", st.Nonce)
	return st, proof, nil
}
