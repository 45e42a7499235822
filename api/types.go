package api

import (
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/ledger"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/types"
)

// Info describes the ledger a node runs.
type Info struct {
	VerifyingKeyHash  types.HexBytes `json:"verifyingKeyHash"`
	FeeCollector      types.HexBytes `json:"feeCollector,omitempty"`
	AllowSelfTransfer bool           `json:"allowSelfTransfer"`
	DecryptionBound   uint64         `json:"decryptionBound"`
	AmountBits        int            `json:"amountBits"`
	StatementSize     int            `json:"statementSize"`
	ProofSize         int            `json:"proofSize"`
}

// State is the current state root of the ledger.
type State struct {
	Root     types.HexBytes `json:"root"`
	Accounts int            `json:"accounts"`
}

// NewAccount is the request to register an account. Accounts are registered
// with a zero balance; funds arrive through genesis or transfers.
type NewAccount struct {
	Key types.HexBytes `json:"key"`
}

// Account is the public state of an account.
type Account struct {
	Key     types.HexBytes      `json:"key"`
	Balance *elgamal.Ciphertext `json:"balance"`
	Nonce   uint64              `json:"nonce"`
}

// Transfer is the request to apply a transfer, with the canonical encodings
// of the statement and the proof.
type Transfer struct {
	Statement types.HexBytes `json:"statement"`
	Proof     types.HexBytes `json:"proof"`
}

// TransferInfo is an applied transfer as stored in the journal.
type TransferInfo struct {
	ID        types.HexBytes      `json:"id"`
	Statement *transfer.Statement `json:"statement"`
	Proof     types.HexBytes      `json:"proof"`
	Nonce     uint64              `json:"nonce"`
	StateRoot types.HexBytes      `json:"stateRoot"`
	Timestamp int64               `json:"timestamp"`
}

// Receipt is the response to an applied transfer.
type Receipt = ledger.Receipt
