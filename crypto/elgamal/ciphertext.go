package elgamal

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
)

// DefaultCurve is the curve used when a ciphertext is decoded without any
// preallocated points.
const DefaultCurve = curves.CurveTypeBabyJubJub

// SizeCiphertext is the size in bytes needed to serialize a Ciphertext.
const SizeCiphertext = 2 * ecc.PointSize

// Ciphertext represents an ElGamal encrypted message with homomorphic properties.
// It is a wrapper for convenience of the elGamal ciphersystem that encapsulates the two points of a ciphertext.
type Ciphertext struct {
	C1 ecc.Point `json:"c1"`
	C2 ecc.Point `json:"c2"`
}

// NewCiphertext creates a new Ciphertext on the same curve as the given Point.
// Both points are set to the identity, which is the encryption of zero with
// zero randomness and the starting balance of every account.
func NewCiphertext(curve ecc.Point) *Ciphertext {
	return &Ciphertext{C1: curve.New(), C2: curve.New()}
}

// ZeroCiphertext returns the identity pair on the default curve, the
// encryption of 0 with randomness 0.
func ZeroCiphertext() *Ciphertext {
	return NewCiphertext(curves.New(DefaultCurve))
}

// Encrypt encrypts a message using the public key provided as elliptic curve point.
// The randomness k can be provided or nil to generate a new one.
func (z *Ciphertext) Encrypt(message *big.Int, publicKey ecc.Point, k *big.Int) (*Ciphertext, error) {
	if k == nil {
		c1, c2, _, err := Encrypt(publicKey, message)
		if err != nil {
			return nil, fmt.Errorf("elgamal encryption failed: %w", err)
		}
		z.C1, z.C2 = c1, c2
		return z, nil
	}
	z.C1, z.C2 = EncryptWithK(publicKey, message, k)
	return z, nil
}

// Add adds two Ciphertext and stores the result in z, which is also returned.
// Both must be encrypted under the same key, then z decrypts to the sum.
func (z *Ciphertext) Add(x, y *Ciphertext) *Ciphertext {
	z.alloc(x)
	z.C1.Add(x.C1, y.C1)
	z.C2.Add(x.C2, y.C2)
	return z
}

// Neg sets z to the ciphertext that decrypts to -x and returns z.
func (z *Ciphertext) Neg(x *Ciphertext) *Ciphertext {
	z.alloc(x)
	z.C1.Neg(x.C1)
	z.C2.Neg(x.C2)
	return z
}

// Sub subtracts y from x and stores the result in z, which is also returned.
// Both must be encrypted under the same key, then z decrypts to x - y.
func (z *Ciphertext) Sub(x, y *Ciphertext) *Ciphertext {
	return z.Add(x, new(Ciphertext).Neg(y))
}

// Set sets z to a copy of x and returns z.
func (z *Ciphertext) Set(x *Ciphertext) *Ciphertext {
	z.alloc(x)
	z.C1.Set(x.C1)
	z.C2.Set(x.C2)
	return z
}

// Clone returns a copy of z.
func (z *Ciphertext) Clone() *Ciphertext {
	return new(Ciphertext).Set(z)
}

// Equal reports whether both ciphertexts hold the same points.
func (z *Ciphertext) Equal(x *Ciphertext) bool {
	if z == nil || x == nil || z.C1 == nil || x.C1 == nil {
		return false
	}
	return z.C1.Equal(x.C1) && z.C2.Equal(x.C2)
}

// InSubgroup reports whether both points are valid subgroup elements.
func (z *Ciphertext) InSubgroup() bool {
	return z.C1 != nil && z.C2 != nil && z.C1.InSubgroup() && z.C2.InSubgroup()
}

// DecryptBounded recovers the value encrypted in z with the private key,
// searching only in [0, maxValue]. It returns ErrDecryptionOutOfRange if the
// value is not in that range.
func (z *Ciphertext) DecryptBounded(privateKey *big.Int, maxValue uint64) (uint64, error) {
	_, v, err := Decrypt(privateKey, z.C1, z.C2, maxValue)
	return v, err
}

// alloc makes sure the receiver points exist, on the curve of ref.
func (z *Ciphertext) alloc(ref *Ciphertext) {
	if z.C1 == nil {
		z.C1 = ref.C1.New()
	}
	if z.C2 == nil {
		z.C2 = ref.C1.New()
	}
}

// Serialize returns a slice of len 2*32 bytes, the compressed encoding of C1
// followed by the compressed encoding of C2.
func (z *Ciphertext) Serialize() []byte {
	buf := make([]byte, 0, SizeCiphertext)
	buf = append(buf, z.C1.Marshal()...)
	return append(buf, z.C2.Marshal()...)
}

// Deserialize reconstructs a Ciphertext from a slice of bytes produced by
// Serialize. Both points must be canonically encoded subgroup elements. The
// receiver is only modified on success.
func (z *Ciphertext) Deserialize(data []byte) error {
	if len(data) != SizeCiphertext {
		return fmt.Errorf("%w: invalid input length: got %d bytes, expected %d bytes",
			ecc.ErrInvalidEncoding, len(data), SizeCiphertext)
	}
	curve := z.C1
	if curve == nil {
		curve = curves.New(DefaultCurve)
	}
	c1, c2 := curve.New(), curve.New()
	if err := c1.Unmarshal(data[:ecc.PointSize]); err != nil {
		return fmt.Errorf("c1: %w", err)
	}
	if err := c2.Unmarshal(data[ecc.PointSize:]); err != nil {
		return fmt.Errorf("c2: %w", err)
	}
	z.C1, z.C2 = c1, c2
	return nil
}

// Marshal converts Ciphertext to a byte slice.
func (z *Ciphertext) Marshal() ([]byte, error) {
	return json.Marshal(z)
}

// Unmarshal populates Ciphertext from a byte slice.
func (z *Ciphertext) Unmarshal(data []byte) error {
	return json.Unmarshal(data, z)
}

// String returns a string representation of the Ciphertext.
func (z *Ciphertext) String() string {
	if z == nil || z.C1 == nil || z.C2 == nil {
		return "{C1: nil, C2: nil}"
	}
	return fmt.Sprintf("{C1: %s, C2: %s}", z.C1.String(), z.C2.String())
}

// ToGnark returns z as the struct used in circuits.
func (z *Ciphertext) ToGnark() circuits.Ciphertext {
	return circuits.Ciphertext{
		C1: circuits.PointToGnark(z.C1),
		C2: circuits.PointToGnark(z.C2),
	}
}
