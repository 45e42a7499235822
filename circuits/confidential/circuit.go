// Package confidential defines the confidential transfer circuit. A valid
// assignment proves that the sender owns the decryption key of its balance,
// that the balance covers the amount plus the fee, and that the sender,
// recipient and fee ciphertexts all commit to the same amount and fee.
package confidential

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/math/bits"
	"github.com/vocdoni/confidential-transfers/circuits"
)

type Circuit struct {
	// ---------------------------------------------------------------------------------------------
	// PUBLIC INPUTS

	SenderKey       twistededwards.Point `gnark:",public"`
	RecipientKey    twistededwards.Point `gnark:",public"`
	FeeCollectorKey twistededwards.Point `gnark:",public"`
	BalanceBefore   circuits.Ciphertext  `gnark:",public"`
	BalanceAfter    circuits.Ciphertext  `gnark:",public"`
	RecipientAmount circuits.Ciphertext  `gnark:",public"`
	FeeAmount       circuits.Ciphertext  `gnark:",public"`
	Nonce           frontend.Variable    `gnark:",public"`

	// ---------------------------------------------------------------------------------------------
	// SECRET INPUTS

	Amount              frontend.Variable
	Fee                 frontend.Variable
	Balance             frontend.Variable
	PrivateKey          frontend.Variable
	SenderRandomness    frontend.Variable
	RecipientRandomness frontend.Variable
	FeeRandomness       frontend.Variable
}

// Define declares the circuit's constraints
func (circuit Circuit) Define(api frontend.API) error {
	curve, err := twistededwards.NewEdCurve(api, circuits.TransferEncryptionCurve)
	if err != nil {
		return err
	}
	circuit.VerifyPublicPoints(curve)
	circuit.VerifyRanges(api)
	circuit.VerifyOwnership(api, curve)
	circuit.VerifyBalance(api, curve)
	circuit.VerifySenderUpdate(api, curve)
	circuit.VerifyCredits(api, curve)
	return nil
}

// VerifyPublicPoints asserts that every public point is on the curve.
func (circuit Circuit) VerifyPublicPoints(curve twistededwards.Curve) {
	curve.AssertIsOnCurve(circuit.SenderKey)
	curve.AssertIsOnCurve(circuit.RecipientKey)
	curve.AssertIsOnCurve(circuit.FeeCollectorKey)
	circuit.BalanceBefore.AssertIsOnCurve(curve)
	circuit.BalanceAfter.AssertIsOnCurve(curve)
	circuit.RecipientAmount.AssertIsOnCurve(curve)
	circuit.FeeAmount.AssertIsOnCurve(curve)
}

// VerifyRanges bounds the amount, the fee, the balance and the remaining
// balance to circuits.AmountBits bits, and the nonce to circuits.NonceBits
// bits. A remaining balance that underflows wraps around the field and does
// not fit, which is what rules out spending more than the balance.
func (circuit Circuit) VerifyRanges(api frontend.API) {
	bits.ToBinary(api, circuit.Amount, bits.WithNbDigits(circuits.AmountBits))
	bits.ToBinary(api, circuit.Fee, bits.WithNbDigits(circuits.AmountBits))
	bits.ToBinary(api, circuit.Balance, bits.WithNbDigits(circuits.AmountBits))
	remaining := api.Sub(circuit.Balance, circuit.Amount, circuit.Fee)
	bits.ToBinary(api, remaining, bits.WithNbDigits(circuits.AmountBits))
	bits.ToBinary(api, circuit.Nonce, bits.WithNbDigits(circuits.NonceBits))
}

// VerifyOwnership asserts SenderKey = PrivateKey·G.
func (circuit Circuit) VerifyOwnership(api frontend.API, curve twistededwards.Curve) {
	pub := curve.ScalarMul(circuits.BasePoint(curve), circuit.PrivateKey)
	circuits.AssertPointIsEqual(api, pub, circuit.SenderKey)
}

// VerifyBalance asserts that Balance is the value encrypted in
// BalanceBefore, BalanceBefore.C2 = Balance·G + PrivateKey·BalanceBefore.C1.
func (circuit Circuit) VerifyBalance(api frontend.API, curve twistededwards.Curve) {
	c2 := curve.DoubleBaseScalarMul(circuits.BasePoint(curve), circuit.BalanceBefore.C1,
		circuit.Balance, circuit.PrivateKey)
	circuits.AssertPointIsEqual(api, c2, circuit.BalanceBefore.C2)
}

// VerifySenderUpdate asserts BalanceAfter + Enc(SenderKey, Amount+Fee) =
// BalanceBefore, using SenderRandomness for the debit ciphertext.
func (circuit Circuit) VerifySenderUpdate(api frontend.API, curve twistededwards.Curve) {
	total := api.Add(circuit.Amount, circuit.Fee)
	debit := new(circuits.Ciphertext).Encrypt(curve, circuit.SenderKey, total, circuit.SenderRandomness)
	before := new(circuits.Ciphertext).Add(curve, circuit.BalanceAfter, *debit)
	before.AssertIsEqual(api, circuit.BalanceBefore)
}

// VerifyCredits asserts that RecipientAmount encrypts Amount under
// RecipientKey and FeeAmount encrypts Fee under FeeCollectorKey.
func (circuit Circuit) VerifyCredits(api frontend.API, curve twistededwards.Curve) {
	recipient := new(circuits.Ciphertext).Encrypt(curve, circuit.RecipientKey, circuit.Amount, circuit.RecipientRandomness)
	recipient.AssertIsEqual(api, circuit.RecipientAmount)
	fee := new(circuits.Ciphertext).Encrypt(curve, circuit.FeeCollectorKey, circuit.Fee, circuit.FeeRandomness)
	fee.AssertIsEqual(api, circuit.FeeAmount)
}
