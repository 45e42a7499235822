package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vocdoni/confidential-transfers/api"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/types"
	"github.com/vocdoni/confidential-transfers/zk"
)

// Error is an error response of the API.
type Error struct {
	Message    string `json:"error"`
	Code       int    `json:"code"`
	HTTPStatus int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d (code %d: %s)", errCodeNot200, e.HTTPStatus, e.Code, e.Message)
}

// Is matches an api.Error with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case api.Error:
		return t.Code == e.Code
	case *Error:
		return t.Code == e.Code
	}
	return false
}

func responseError(data []byte, status int) error {
	e := &Error{HTTPStatus: status}
	if err := json.Unmarshal(data, e); err != nil {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return e
}

// call performs the request and decodes the response into out. A non 200
// status returns an *Error.
func (c *HTTPclient) call(method string, body, out any, urlPath ...string) error {
	data, status, err := c.Request(method, body, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return responseError(data, status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

func keyPath(key ecc.Point) string {
	return types.HexBytes(key.Marshal()).String()
}

// Info returns the ledger configuration.
func (c *HTTPclient) Info() (*api.Info, error) {
	info := &api.Info{}
	return info, c.call(HTTPGET, nil, info, api.InfoEndpoint)
}

// State returns the state root and the number of accounts.
func (c *HTTPclient) State() (*api.State, error) {
	state := &api.State{}
	return state, c.call(HTTPGET, nil, state, api.StateEndpoint)
}

// CreateAccount registers the account of key with a zero balance.
func (c *HTTPclient) CreateAccount(key ecc.Point) (*api.Account, error) {
	account := &api.Account{}
	return account, c.call(HTTPPOST, &api.NewAccount{Key: key.Marshal()}, account,
		api.AccountsEndpoint)
}

// Account returns the public state of the account of key.
func (c *HTTPclient) Account(key ecc.Point) (*api.Account, error) {
	account := &api.Account{}
	return account, c.call(HTTPGET, nil, account, api.AccountsEndpoint, keyPath(key))
}

// AccountProof returns the state tree proof of the account of key.
func (c *HTTPclient) AccountProof(key ecc.Point) (*storage.AccountProof, error) {
	proof := &storage.AccountProof{}
	return proof, c.call(HTTPGET, nil, proof, api.AccountsEndpoint, keyPath(key), "proof")
}

// SubmitTransfer sends a transfer to the ledger and returns its receipt.
func (c *HTTPclient) SubmitTransfer(st *transfer.Statement, proof *zk.Proof) (*api.Receipt, error) {
	receipt := &api.Receipt{}
	return receipt, c.call(HTTPPOST, &api.Transfer{Statement: st.Encode(), Proof: proof.Bytes()}, receipt,
		api.TransfersEndpoint)
}

// Transfer returns an applied transfer.
func (c *HTTPclient) Transfer(id types.HexBytes) (*api.TransferInfo, error) {
	info := &api.TransferInfo{}
	return info, c.call(HTTPGET, nil, info, api.TransfersEndpoint, id.String())
}
