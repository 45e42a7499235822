package circuits

// used across the circuit and its witness builders
const (
	// AmountBits is the width of amounts, fees and balances.
	AmountBits = 32
	// NonceBits is the width of the account nonce.
	NonceBits = 64
)
