package ecc

import (
	"fmt"
	"math/big"
)

// Reduce returns the representation of iv in the field of the given order.
// Values already in range are returned as is.
func Reduce(order, iv *big.Int) *big.Int {
	if iv.Sign() >= 0 && iv.Cmp(order) < 0 {
		return iv
	}
	return new(big.Int).Mod(iv, order)
}

// ScalarBytes returns the fixed size big-endian encoding of s reduced modulo
// order.
func ScalarBytes(order, s *big.Int) []byte {
	buf := make([]byte, ScalarSize)
	return Reduce(order, s).FillBytes(buf)
}

// ScalarFromBytes decodes a scalar encoded by ScalarBytes. It only accepts
// the canonical encoding, so the buffer must have exactly ScalarSize bytes
// and hold a value lower than order.
func ScalarFromBytes(order *big.Int, buf []byte) (*big.Int, error) {
	if len(buf) != ScalarSize {
		return nil, fmt.Errorf("%w: scalar must be %d bytes, got %d", ErrInvalidEncoding, ScalarSize, len(buf))
	}
	s := new(big.Int).SetBytes(buf)
	if s.Cmp(order) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidEncoding)
	}
	return s, nil
}
