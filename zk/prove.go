package zk

import (
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/circuits/confidential"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/transfer"
)

// ErrUnsatisfiedWitness is returned by Prove when the witness does not
// satisfy the circuit for the statement. It is a programming or witness
// construction error, no proof is produced.
var ErrUnsatisfiedWitness = errors.New("witness does not satisfy the circuit")

// Prove builds a proof that w is a valid witness for st.
//
// The witness is first checked against the constraint system so an invalid
// witness fails fast instead of producing an unverifiable proof. Every call
// samples new blinding factors (r, s) from crypto/rand inside groth16.Prove;
// two proofs of the same witness must never share them, so proofs are never
// cached or derived from a previous one. The error never includes witness
// values.
func Prove(pk *ProvingKey, st *transfer.Statement, w *transfer.Witness) (*Proof, error) {
	if pk == nil {
		return nil, errors.New("nil proving key")
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if w == nil || w.PrivateKey == nil || w.SenderRandomness == nil ||
		w.RecipientRandomness == nil || w.FeeRandomness == nil {
		return nil, fmt.Errorf("%w: incomplete witness", ErrUnsatisfiedWitness)
	}
	startTime := time.Now()
	fullWitness, err := frontend.NewWitness(confidential.Assignment(st, w), circuits.TransferCurve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("full witness error: %w", err)
	}
	if err := pk.ccs.IsSolved(fullWitness); err != nil {
		// the solver error may print wire values, so it is not wrapped
		return nil, ErrUnsatisfiedWitness
	}
	proof, err := groth16.Prove(pk.ccs, pk.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("proof error: %w", ErrUnsatisfiedWitness)
	}
	log.Debugw("transfer proof generated",
		"statement", st.Hash().String(),
		"took", time.Since(startTime).String())
	return &Proof{proof: proof}, nil
}
