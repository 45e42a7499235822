package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a string representation
// of the big number. Note that a nil pointer value marshals as the empty
// string.
type BigInt big.Int

// MarshalText returns the decimal string representation of the big number.
// If the receiver is nil, we return "0".
func (i *BigInt) MarshalText() ([]byte, error) {
	if i == nil {
		return []byte("0"), nil
	}
	return (*big.Int)(i).MarshalText()
}

// UnmarshalText parses the text representation of the big number. Hex
// strings prefixed with 0x are also accepted.
func (i *BigInt) UnmarshalText(data []byte) error {
	if i == nil {
		return fmt.Errorf("cannot unmarshal into nil BigInt")
	}
	s := string(data)
	base := 10
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s, base = s[2:], 16
	}
	if _, ok := (*big.Int)(i).SetString(s, base); !ok {
		return fmt.Errorf("invalid big number %q", data)
	}
	return nil
}

// MarshalCBOR encodes the number as a CBOR bignum.
func (i *BigInt) MarshalCBOR() ([]byte, error) {
	if i == nil {
		return cbor.Marshal(new(big.Int))
	}
	return cbor.Marshal((*big.Int)(i))
}

// UnmarshalCBOR decodes a CBOR bignum (or plain integer) into the receiver.
func (i *BigInt) UnmarshalCBOR(data []byte) error {
	b := new(big.Int)
	if err := cbor.Unmarshal(data, b); err != nil {
		return err
	}
	*i = BigInt(*b)
	return nil
}

// String returns the decimal representation of the number.
func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// MathBigInt converts i to a *math/big.Int. The result shares memory with i.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

// SetBigInt sets i to a copy of x and returns i.
func (i *BigInt) SetBigInt(x *big.Int) *BigInt {
	(*big.Int)(i).Set(x)
	return i
}

// SetUint64 sets i to x and returns i.
func (i *BigInt) SetUint64(x uint64) *BigInt {
	(*big.Int)(i).SetUint64(x)
	return i
}

// Equal reports whether i and j hold the same number.
func (i *BigInt) Equal(j *BigInt) bool {
	return (*big.Int)(i).Cmp((*big.Int)(j)) == 0
}
