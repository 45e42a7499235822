package confidential

import (
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/transfer"
)

// Placeholder returns the circuit definition used to compile the constraint
// system.
func Placeholder() *Circuit {
	return &Circuit{}
}

// Assignment returns the full assignment of the circuit for the statement and
// its witness.
func Assignment(st *transfer.Statement, w *transfer.Witness) *Circuit {
	c := PublicAssignment(st)
	c.Amount = w.Amount.BigInt()
	c.Fee = w.Fee.BigInt()
	c.Balance = w.Balance.BigInt()
	c.PrivateKey = w.PrivateKey
	c.SenderRandomness = w.SenderRandomness
	c.RecipientRandomness = w.RecipientRandomness
	c.FeeRandomness = w.FeeRandomness
	return c
}

// PublicAssignment returns the assignment of the public inputs of the
// statement, with every secret input set to zero. It is used to build the
// public witness.
func PublicAssignment(st *transfer.Statement) *Circuit {
	var zero frontend.Variable = 0
	return &Circuit{
		SenderKey:           circuits.PointToGnark(st.Sender),
		RecipientKey:        circuits.PointToGnark(st.Recipient),
		FeeCollectorKey:     circuits.PointToGnark(st.FeeCollector),
		BalanceBefore:       st.BalanceBefore.ToGnark(),
		BalanceAfter:        st.BalanceAfter.ToGnark(),
		RecipientAmount:     st.RecipientAmount.ToGnark(),
		FeeAmount:           st.FeeAmount.ToGnark(),
		Nonce:               st.Nonce,
		Amount:              zero,
		Fee:                 zero,
		Balance:             zero,
		PrivateKey:          zero,
		SenderRandomness:    zero,
		RecipientRandomness: zero,
		FeeRandomness:       zero,
	}
}
