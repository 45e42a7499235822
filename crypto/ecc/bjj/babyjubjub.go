// Package bjj implements the ecc.Point interface for the BabyJubJub twisted
// Edwards curve, defined over the scalar field of BN254, using gnark-crypto.
// The coordinates are the reduced twisted Edwards form used by gnark, so the
// same points can be assigned to circuits without any conversion.
package bjj

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	babyjubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/fxamacker/cbor/v2"
	curve "github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/types"
)

const CurveType = "bjj"

// Params holds the curve parameters (generator, subgroup order, cofactor).
var Params = babyjubjub.GetEdwardsCurve()

// BJJ is the affine representation of the BabyJubJub group element.
type BJJ struct {
	inner *babyjubjub.PointAffine
}

// New creates a new BJJ point set to the identity element.
func New() curve.Point {
	p := &BJJ{inner: new(babyjubjub.PointAffine)}
	p.SetZero()
	return p
}

// New creates a new BJJ point set to the identity element.
func (g *BJJ) New() curve.Point {
	return New()
}

func (g *BJJ) point() *babyjubjub.PointAffine {
	if g.inner == nil {
		g.inner = new(babyjubjub.PointAffine)
		g.inner.Y.SetOne()
	}
	return g.inner
}

func inner(a curve.Point) *babyjubjub.PointAffine {
	return a.(*BJJ).point()
}

// Order returns the order of the BabyJubJub prime subgroup.
func (g *BJJ) Order() *big.Int {
	return new(big.Int).Set(&Params.Order)
}

// Add performs the addition of two points and stores the result in g.
func (g *BJJ) Add(a, b curve.Point) {
	g.point().Add(inner(a), inner(b))
}

// ScalarMult performs scalar multiplication of a point by a scalar.
func (g *BJJ) ScalarMult(a curve.Point, scalar *big.Int) {
	g.point().ScalarMultiplication(inner(a), scalar)
}

// ScalarBaseMult performs scalar multiplication using the base point.
func (g *BJJ) ScalarBaseMult(scalar *big.Int) {
	g.point().ScalarMultiplication(&Params.Base, scalar)
}

// Equal checks if the given point is equal to the current point.
func (g *BJJ) Equal(a curve.Point) bool {
	return g.point().Equal(inner(a))
}

// Neg negates the given point and stores the result in g.
func (g *BJJ) Neg(a curve.Point) {
	g.point().Neg(inner(a))
}

// SetZero sets the current point to the identity element (0, 1).
func (g *BJJ) SetZero() {
	p := g.point()
	p.X.SetZero()
	p.Y.SetOne()
}

// IsZero reports whether g is the identity element.
func (g *BJJ) IsZero() bool {
	p := g.point()
	return p.X.IsZero() && p.Y.IsOne()
}

// InSubgroup reports whether g is on the curve and [order]g is the identity,
// which rules out the small order points of the cofactor 8 group.
func (g *BJJ) InSubgroup() bool {
	p := g.point()
	if !p.IsOnCurve() {
		return false
	}
	var check babyjubjub.PointAffine
	check.ScalarMultiplication(p, &Params.Order)
	return check.X.IsZero() && check.Y.IsOne()
}

// Set sets g to the value of another point.
func (g *BJJ) Set(a curve.Point) {
	g.point().Set(inner(a))
}

// SetGenerator sets the point to the BabyJubJub generator.
func (g *BJJ) SetGenerator() {
	g.point().Set(&Params.Base)
}

// String returns a string representation of the point coordinates.
func (g *BJJ) String() string {
	x, y := g.Point()
	return fmt.Sprintf("%s,%s", x.String(), y.String())
}

// Marshal returns the 32 byte compressed encoding of the point.
func (g *BJJ) Marshal() []byte {
	b := g.point().Bytes()
	return b[:]
}

// Unmarshal decodes a compressed point. The encoding must be exactly the one
// Marshal produces for the decoded point and the point must be in the prime
// order subgroup. The receiver is only modified on success.
func (g *BJJ) Unmarshal(buf []byte) error {
	if len(buf) != curve.PointSize {
		return fmt.Errorf("%w: point must be %d bytes, got %d", curve.ErrInvalidEncoding, curve.PointSize, len(buf))
	}
	p := new(babyjubjub.PointAffine)
	if _, err := p.SetBytes(buf); err != nil {
		return fmt.Errorf("%w: %v", curve.ErrInvalidEncoding, err)
	}
	if !p.IsOnCurve() {
		return fmt.Errorf("%w: point not on curve", curve.ErrInvalidEncoding)
	}
	if enc := p.Bytes(); !bytes.Equal(enc[:], buf) {
		return fmt.Errorf("%w: non-canonical point", curve.ErrInvalidEncoding)
	}
	decoded := &BJJ{inner: p}
	if !decoded.InSubgroup() {
		return curve.ErrNotInSubgroup
	}
	g.inner = p
	return nil
}

// MarshalJSON serializes the point coordinates into JSON.
func (g *BJJ) MarshalJSON() ([]byte, error) {
	x, y := g.Point()
	return json.Marshal(&curve.PointEC{X: types.BigInt(*x), Y: types.BigInt(*y)})
}

// UnmarshalJSON deserializes the point coordinates from JSON. Coordinates
// must be reduced field elements describing a subgroup point.
func (g *BJJ) UnmarshalJSON(buf []byte) error {
	points := &curve.PointEC{}
	if err := json.Unmarshal(buf, points); err != nil {
		return err
	}
	x, y := points.X.MathBigInt(), points.Y.MathBigInt()
	if x.Sign() < 0 || y.Sign() < 0 || x.Cmp(fr.Modulus()) >= 0 || y.Cmp(fr.Modulus()) >= 0 {
		return fmt.Errorf("%w: coordinate out of range", curve.ErrInvalidEncoding)
	}
	decoded := &BJJ{inner: new(babyjubjub.PointAffine)}
	decoded.SetPoint(x, y)
	if !decoded.point().IsOnCurve() {
		return fmt.Errorf("%w: point not on curve", curve.ErrInvalidEncoding)
	}
	if !decoded.InSubgroup() {
		return curve.ErrNotInSubgroup
	}
	g.inner = decoded.inner
	return nil
}

// MarshalCBOR encodes the compressed point as a CBOR byte string.
func (g *BJJ) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(g.Marshal())
}

// UnmarshalCBOR decodes a CBOR byte string holding a compressed point.
func (g *BJJ) UnmarshalCBOR(buf []byte) error {
	var b []byte
	if err := cbor.Unmarshal(buf, &b); err != nil {
		return err
	}
	return g.Unmarshal(b)
}

// Point returns the X and Y coordinates of the elliptic curve element.
func (g *BJJ) Point() (*big.Int, *big.Int) {
	x, y := new(big.Int), new(big.Int)
	g.point().X.BigInt(x)
	g.point().Y.BigInt(y)
	return x, y
}

// SetPoint sets the coordinates of the point and returns it.
func (g *BJJ) SetPoint(x, y *big.Int) curve.Point {
	p := g.point()
	p.X.SetBigInt(x)
	p.Y.SetBigInt(y)
	return g
}

// Type returns the curve type name.
func (g *BJJ) Type() string {
	return CurveType
}
