package api

import (
	"net/http"

	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/zk"
)

// info returns the ledger configuration
// GET /info
func (a *API) info(w http.ResponseWriter, r *http.Request) {
	conf := a.ledger.Config()
	info := &Info{
		VerifyingKeyHash:  a.vkHash,
		AllowSelfTransfer: conf.AllowSelfTransfer,
		DecryptionBound:   conf.DecryptionBound,
		AmountBits:        circuits.AmountBits,
		StatementSize:     transfer.StatementSize,
		ProofSize:         zk.ProofSize,
	}
	if conf.FeeCollector != nil {
		info.FeeCollector = conf.FeeCollector.Marshal()
	}
	httpWriteJSON(w, info)
}

// state returns the state root of the ledger
// GET /state
func (a *API) state(w http.ResponseWriter, r *http.Request) {
	root, err := a.ledger.StateRoot()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	count, err := a.ledger.CountAccounts()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &State{Root: root, Accounts: count})
}
