package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
)

// Ciphertext is the in-circuit representation of an ElGamal ciphertext,
// C1 = k·G and C2 = m·G + k·pk.
type Ciphertext struct {
	C1 twistededwards.Point
	C2 twistededwards.Point
}

// PointToGnark converts a point to the twisted Edwards point struct used in
// circuits. A nil point is converted to the identity.
func PointToGnark(p ecc.Point) twistededwards.Point {
	if p == nil {
		return twistededwards.Point{X: 0, Y: 1}
	}
	x, y := p.Point()
	return twistededwards.Point{X: x, Y: y}
}

// AssertIsOnCurve asserts that both points of the ciphertext are on the
// curve.
func (z Ciphertext) AssertIsOnCurve(curve twistededwards.Curve) {
	curve.AssertIsOnCurve(z.C1)
	curve.AssertIsOnCurve(z.C2)
}

// AssertIsEqual asserts that both ciphertexts hold the same points.
func (z Ciphertext) AssertIsEqual(api frontend.API, x Ciphertext) {
	AssertPointIsEqual(api, z.C1, x.C1)
	AssertPointIsEqual(api, z.C2, x.C2)
}

// Add sets z to the homomorphic sum of x and y and returns z.
func (z *Ciphertext) Add(curve twistededwards.Curve, x, y Ciphertext) *Ciphertext {
	z.C1 = curve.Add(x.C1, y.C1)
	z.C2 = curve.Add(x.C2, y.C2)
	return z
}

// Encrypt sets z to the encryption of msg under publicKey with randomness k
// and returns z. Both msg and k are decomposed into bits by the scalar
// multiplications, so any field element is accepted.
func (z *Ciphertext) Encrypt(curve twistededwards.Curve, publicKey twistededwards.Point, msg, k frontend.Variable) *Ciphertext {
	base := twistededwards.Point{
		X: curve.Params().Base[0],
		Y: curve.Params().Base[1],
	}
	// C1 = k·G
	z.C1 = curve.ScalarMul(base, k)
	// C2 = m·G + k·pk
	z.C2 = curve.DoubleBaseScalarMul(base, publicKey, msg, k)
	return z
}

// AssertPointIsEqual asserts that both points have the same coordinates.
func AssertPointIsEqual(api frontend.API, a, b twistededwards.Point) {
	api.AssertIsEqual(a.X, b.X)
	api.AssertIsEqual(a.Y, b.Y)
}

// BasePoint returns the generator of the curve as a circuit point.
func BasePoint(curve twistededwards.Curve) twistededwards.Point {
	return twistededwards.Point{
		X: curve.Params().Base[0],
		Y: curve.Params().Base[1],
	}
}
