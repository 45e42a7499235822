package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/types"
)

// newTransfer verifies and applies a transfer
// POST /transfers
func (a *API) newTransfer(w http.ResponseWriter, r *http.Request) {
	req := &Transfer{}
	if apiErr := decodeBody(w, r, req); apiErr != nil {
		apiErr.Write(w)
		return
	}
	receipt, err := a.ledger.ApplyEncodedTransfer(req.Statement, req.Proof)
	if err != nil {
		ledgerError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// transfer returns an applied transfer
// GET /transfers/{transferId}
func (a *API) transfer(w http.ResponseWriter, r *http.Request) {
	id, err := types.HexStringToHexBytes(chi.URLParam(r, TransferURLParam))
	if err != nil || len(id) != types.StateKeyLen {
		ErrMalformedTransferID.Write(w)
		return
	}
	record, err := a.ledger.Transfer(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrTransferNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	st, err := transfer.DecodeStatement(record.Statement)
	if err != nil {
		ErrGenericInternalServerError.Withf("could not decode stored statement: %v", err).Write(w)
		return
	}
	httpWriteJSON(w, &TransferInfo{
		ID:        record.ID,
		Statement: st,
		Proof:     record.Proof,
		Nonce:     record.Nonce,
		StateRoot: record.StateRoot,
		Timestamp: record.Timestamp,
	})
}
