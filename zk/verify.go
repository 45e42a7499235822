package zk

import (
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/circuits/confidential"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/transfer"
)

// Verify reports whether proof is a valid proof for st under vk. It returns
// false, and never panics, on an incomplete statement, statement points
// outside the prime order subgroup, a malformed proof or a failed pairing
// check. Only public values are involved.
func Verify(vk *VerifyingKey, st *transfer.Statement, proof *Proof) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnw("recovered panic verifying transfer proof", "panic", r)
			ok = false
		}
	}()
	if vk == nil || proof == nil || proof.proof == nil {
		return false
	}
	if err := st.Validate(); err != nil {
		return false
	}
	publicWitness, err := frontend.NewWitness(confidential.PublicAssignment(st),
		circuits.TransferCurve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}
	if err := groth16.Verify(proof.proof, vk.vk, publicWitness); err != nil {
		log.Debugw("transfer proof rejected", "statement", st.Hash().String())
		return false
	}
	return true
}

// Verify reports whether proof is a valid proof for st under vk.
func (vk *VerifyingKey) Verify(st *transfer.Statement, proof *Proof) bool {
	return Verify(vk, st, proof)
}
