package transfer

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-transfers/circuits"
)

// Amount is the fixed width unsigned integer used for amounts, fees and
// balances. The circuit range checks every Amount to circuits.AmountBits
// bits, so any uint32 value is provable and nothing else is.
type Amount uint32

// MaxAmount is the largest value an Amount holds.
const MaxAmount = Amount(1<<circuits.AmountBits - 1)

// AmountFromUint64 converts v to an Amount, failing if it does not fit.
func AmountFromUint64(v uint64) (Amount, error) {
	if v > uint64(MaxAmount) {
		return 0, fmt.Errorf("amount %d exceeds %d bits", v, circuits.AmountBits)
	}
	return Amount(v), nil
}

// Bits returns the binary decomposition of the amount, least significant bit
// first, in the same order the circuit decomposes it.
func (a Amount) Bits() []uint {
	bits := make([]uint, circuits.AmountBits)
	for i := range bits {
		bits[i] = uint(a>>i) & 1
	}
	return bits
}

// BigInt returns the amount as a big.Int.
func (a Amount) BigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(a))
}

// Uint64 returns the amount as a uint64.
func (a Amount) Uint64() uint64 {
	return uint64(a)
}
