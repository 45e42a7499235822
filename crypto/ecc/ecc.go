// Package ecc defines the group element abstraction used by the encryption
// scheme and the ledger, together with the canonical wire encodings of
// points and scalars.
package ecc

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-transfers/types"
)

const (
	// PointSize is the size in bytes of a compressed point.
	PointSize = 32
	// ScalarSize is the size in bytes of an encoded scalar.
	ScalarSize = 32
)

var (
	// ErrInvalidEncoding is returned when a point or scalar byte string is
	// malformed, has the wrong size or is not the canonical encoding of its
	// value.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrNotInSubgroup is returned when a point is on the curve but outside
	// the prime order subgroup.
	ErrNotInSubgroup = errors.New("point not in prime order subgroup")
	// ErrIdentityKey is returned when the identity element is used as a
	// public key. It wraps ErrNotInSubgroup.
	ErrIdentityKey = fmt.Errorf("%w: identity element is not a valid key", ErrNotInSubgroup)
)

// CheckKey checks that p can be used as a public key: a point of the prime
// order subgroup other than the identity. Ciphertext components are not
// keys, the identity is valid there.
func CheckKey(p Point) error {
	if !p.InSubgroup() {
		return ErrNotInSubgroup
	}
	if p.IsZero() {
		return ErrIdentityKey
	}
	return nil
}

// Point defines the common operations that can be performed on elliptic
// curve group elements. Implementations keep the point in affine coordinates.
type Point interface {
	// New returns a new point set to the identity element.
	New() Point

	// Order returns the order of the prime subgroup.
	Order() *big.Int

	// Add adds two group elements and stores the result in the receiver.
	Add(a, b Point)

	// ScalarMult multiplies the group element a by the scalar value and
	// stores the result in the receiver.
	ScalarMult(a Point, scalar *big.Int)

	// ScalarBaseMult sets the receiver to scalar times the generator.
	ScalarBaseMult(scalar *big.Int)

	// Marshal returns the canonical compressed encoding of the point.
	Marshal() []byte

	// Unmarshal decodes a compressed point. It rejects non-canonical
	// encodings and points outside the prime order subgroup.
	Unmarshal(buf []byte) error

	// Equal checks if two group elements are equal.
	Equal(a Point) bool

	// Neg sets the receiver to the inverse of a.
	Neg(a Point)

	// SetZero sets the receiver to the identity element.
	SetZero()

	// IsZero reports whether the point is the identity element.
	IsZero() bool

	// InSubgroup reports whether the point is on the curve and belongs to
	// the prime order subgroup.
	InSubgroup() bool

	// Set sets the receiver to the value of a.
	Set(a Point)

	// SetGenerator sets the receiver to the generator of the subgroup.
	SetGenerator()

	// String returns the decimal coordinates of the point.
	String() string

	// Point returns the X and Y affine coordinates.
	Point() (*big.Int, *big.Int)

	// SetPoint sets the affine coordinates and returns the receiver. The
	// coordinates are not validated.
	SetPoint(x, y *big.Int) Point

	// Type returns the curve type name.
	Type() string

	MarshalJSON() ([]byte, error)
	UnmarshalJSON(buf []byte) error
	MarshalCBOR() ([]byte, error)
	UnmarshalCBOR(buf []byte) error
}

// PointEC is the JSON representation of a point by its affine coordinates.
type PointEC struct {
	X types.BigInt `json:"x"`
	Y types.BigInt `json:"y"`
}
