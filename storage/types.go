package storage

import (
	"fmt"

	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/types"
)

// Account is the ledger state of an account: its encryption key, its
// encrypted balance and the nonce of its last accepted transfer.
type Account struct {
	Key     types.HexBytes      `json:"key"`
	Balance *elgamal.Ciphertext `json:"balance"`
	Nonce   uint64              `json:"nonce"`
}

// NewAccount returns an account for the key with a zero balance and nonce 0.
func NewAccount(key ecc.Point) *Account {
	return &Account{
		Key:     key.Marshal(),
		Balance: elgamal.ZeroCiphertext(),
	}
}

// PublicKey decodes the account key.
func (a *Account) PublicKey() (ecc.Point, error) {
	p := curves.New(elgamal.DefaultCurve)
	if err := p.Unmarshal(a.Key); err != nil {
		return nil, fmt.Errorf("invalid account key: %w", err)
	}
	return p, nil
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	return &Account{
		Key:     append(types.HexBytes{}, a.Key...),
		Balance: a.Balance.Clone(),
		Nonce:   a.Nonce,
	}
}

// TransferRecord is the journal entry of an applied transfer.
type TransferRecord struct {
	ID        types.HexBytes `json:"id"`
	Statement types.HexBytes `json:"statement"`
	Proof     types.HexBytes `json:"proof"`
	Sender    types.HexBytes `json:"sender"`
	Nonce     uint64         `json:"nonce"`
	StateRoot types.HexBytes `json:"stateRoot"`
	Timestamp int64          `json:"timestamp"`
}

// AccountProof is an inclusion (or non inclusion) proof of an account in the
// state tree. Value is the keccak256 hash of the encoded account.
type AccountProof struct {
	Root     types.HexBytes `json:"root"`
	Key      types.HexBytes `json:"key"`
	Value    types.HexBytes `json:"value"`
	Siblings types.HexBytes `json:"siblings"`
	Exists   bool           `json:"exists"`
}
