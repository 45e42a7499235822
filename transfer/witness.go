package transfer

import (
	"errors"
	"math/big"

	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
)

// ErrInsufficientBalance is returned when the balance does not cover the
// amount plus the fee.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Witness holds the private inputs of a transfer proof. It only exists in
// the sender's process while proving and is never serialized or logged.
type Witness struct {
	Amount              Amount
	Fee                 Amount
	Balance             Amount
	PrivateKey          *big.Int
	SenderRandomness    *big.Int
	RecipientRandomness *big.Int
	FeeRandomness       *big.Int
}

// String implements fmt.Stringer without revealing any value.
func (w *Witness) String() string {
	return "transfer.Witness{redacted}"
}

// GoString implements fmt.GoStringer without revealing any value.
func (w *Witness) GoString() string {
	return w.String()
}

// Zeroize overwrites the secret values of the witness.
func (w *Witness) Zeroize() {
	w.Amount, w.Fee, w.Balance = 0, 0, 0
	for _, v := range []*big.Int{w.PrivateKey, w.SenderRandomness, w.RecipientRandomness, w.FeeRandomness} {
		if v != nil {
			v.SetInt64(0)
		}
	}
}

// Params are the inputs the sender chooses for a transfer, together with its
// view of the account as stored in the ledger.
type Params struct {
	// Sender is the key pair of the sending account.
	Sender *elgamal.KeyPair
	// Balance is the balance ciphertext currently stored in the ledger.
	Balance *elgamal.Ciphertext
	// BalanceValue is the decrypted value of Balance.
	BalanceValue Amount
	// Nonce is the current nonce of the account, the statement uses
	// Nonce+1.
	Nonce uint64
	// Recipient and FeeCollector are the encryption keys of the credited
	// accounts.
	Recipient    ecc.Point
	FeeCollector ecc.Point
	Amount       Amount
	Fee          Amount
}

// Build samples fresh randomness for the three ciphertexts and returns the
// statement and the witness of the transfer described by p. It returns
// ErrInsufficientBalance if the balance does not cover the amount and the
// fee.
func Build(p *Params) (*Statement, *Witness, error) {
	if p.Sender == nil || p.Balance == nil || p.Recipient == nil || p.FeeCollector == nil {
		return nil, nil, ErrIncompleteStatement
	}
	for _, key := range []ecc.Point{p.Recipient, p.FeeCollector} {
		if err := ecc.CheckKey(key); err != nil {
			return nil, nil, err
		}
	}
	if uint64(p.Amount)+uint64(p.Fee) > uint64(p.BalanceValue) {
		return nil, nil, ErrInsufficientBalance
	}
	w := &Witness{
		Amount:     p.Amount,
		Fee:        p.Fee,
		Balance:    p.BalanceValue,
		PrivateKey: new(big.Int).Set(p.Sender.PrivateKey),
	}
	var err error
	for _, r := range []**big.Int{&w.SenderRandomness, &w.RecipientRandomness, &w.FeeRandomness} {
		if *r, err = elgamal.RandK(p.Sender.PublicKey); err != nil {
			return nil, nil, err
		}
	}
	st, err := NewStatement(p.Sender.PublicKey, p.Recipient, p.FeeCollector, p.Balance, p.Nonce+1, w)
	if err != nil {
		return nil, nil, err
	}
	return st, w, nil
}

// NewStatement computes the statement matching the witness w: the balance
// after the transfer and the recipient and fee ciphertexts, with the
// randomness of w.
func NewStatement(sender, recipient, feeCollector ecc.Point, before *elgamal.Ciphertext, nonce uint64, w *Witness) (*Statement, error) {
	total := new(big.Int).Add(w.Amount.BigInt(), w.Fee.BigInt())
	debit, err := elgamal.NewCiphertext(sender).Encrypt(total, sender, w.SenderRandomness)
	if err != nil {
		return nil, err
	}
	recipientAmount, err := elgamal.NewCiphertext(recipient).Encrypt(w.Amount.BigInt(), recipient, w.RecipientRandomness)
	if err != nil {
		return nil, err
	}
	feeAmount, err := elgamal.NewCiphertext(feeCollector).Encrypt(w.Fee.BigInt(), feeCollector, w.FeeRandomness)
	if err != nil {
		return nil, err
	}
	return &Statement{
		Sender:          sender,
		Recipient:       recipient,
		FeeCollector:    feeCollector,
		BalanceBefore:   before.Clone(),
		BalanceAfter:    new(elgamal.Ciphertext).Sub(before, debit),
		RecipientAmount: recipientAmount,
		FeeAmount:       feeAmount,
		Nonce:           nonce,
	}, nil
}
