package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/types"
)

// parseKey decodes an account key, which must be a canonical encoding of a
// point in the prime order subgroup other than the identity.
func parseKey(data []byte) (ecc.Point, *Error) {
	key := curves.New(elgamal.DefaultCurve)
	err := key.Unmarshal(data)
	if err == nil {
		err = ecc.CheckKey(key)
	}
	if err != nil {
		if errors.Is(err, ecc.ErrNotInSubgroup) {
			apiErr := ErrSubgroupCheckFailed.WithErr(err)
			return nil, &apiErr
		}
		apiErr := ErrMalformedAccountKey.WithErr(err)
		return nil, &apiErr
	}
	return key, nil
}

// urlKey decodes the account key of the request URL.
func urlKey(r *http.Request) (ecc.Point, *Error) {
	data, err := types.HexStringToHexBytes(chi.URLParam(r, AccountURLParam))
	if err != nil {
		apiErr := ErrMalformedAccountKey.WithErr(err)
		return nil, &apiErr
	}
	return parseKey(data)
}

// newAccount registers a new account with a zero balance
// POST /accounts
func (a *API) newAccount(w http.ResponseWriter, r *http.Request) {
	req := &NewAccount{}
	if apiErr := decodeBody(w, r, req); apiErr != nil {
		apiErr.Write(w)
		return
	}
	key, apiErr := parseKey(req.Key)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	account, err := a.ledger.CreateAccount(key)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	log.Infow("new account", "key", account.Key.String())
	httpWriteJSON(w, accountResponse(account))
}

// account returns the public state of an account
// GET /accounts/{key}
func (a *API) account(w http.ResponseWriter, r *http.Request) {
	key, apiErr := urlKey(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	account, err := a.ledger.Account(key)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, accountResponse(account))
}

// accountProof returns the state tree proof of an account
// GET /accounts/{key}/proof
func (a *API) accountProof(w http.ResponseWriter, r *http.Request) {
	key, apiErr := urlKey(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	proof, err := a.ledger.AccountProof(key)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	if !proof.Exists {
		ErrAccountNotFound.Write(w)
		return
	}
	httpWriteJSON(w, proof)
}

func accountResponse(account *storage.Account) *Account {
	return &Account{
		Key:     account.Key,
		Balance: account.Balance,
		Nonce:   account.Nonce,
	}
}
