// Package elgamal implements additively homomorphic ElGamal encryption over
// an elliptic curve group. Messages are encoded as m·G, so decryption needs a
// discrete logarithm and is only possible for values within a known bound.
package elgamal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-transfers/crypto/ecc"
)

// DefaultMaxValue is the default decryption bound, the largest value that
// fits in the 32 bit amounts and balances of a transfer.
const DefaultMaxValue = uint64(1<<32 - 1)

var (
	// ErrDecryptionOutOfRange is returned when no value in the decryption
	// range matches the ciphertext.
	ErrDecryptionOutOfRange = errors.New("value exceeds supported range")
	// ErrInvalidKey is returned for private keys that must not be used.
	ErrInvalidKey = errors.New("invalid key")
)

// RandK function generates a uniformly random k value in [1, order) for
// encryption.
func RandK(curve ecc.Point) (*big.Int, error) {
	order := curve.Order()
	for {
		k, err := rand.Int(rand.Reader, order)
		if err != nil {
			return nil, fmt.Errorf("failed to generate random k: %w", err)
		}
		if k.Sign() != 0 {
			return k, nil
		}
	}
}

// Encrypt function encrypts a message using the public key provided as
// elliptic curve point. It generates a random k and returns the two points
// that represent the encrypted message and the random k used to encrypt it.
func Encrypt(publicKey ecc.Point, msg *big.Int) (ecc.Point, ecc.Point, *big.Int, error) {
	k, err := RandK(publicKey)
	if err != nil {
		return nil, nil, nil, err
	}
	c1, c2 := EncryptWithK(publicKey, msg, k)
	return c1, c2, k, nil
}

// EncryptWithK function encrypts a message using the public key provided as
// elliptic curve point and the random k value provided. It returns the two
// points that represent the encrypted message, C1 = k·G and C2 = m·G + k·pk.
// The result is deterministic for the same inputs and the inputs are not
// modified.
func EncryptWithK(pubKey ecc.Point, msg, k *big.Int) (ecc.Point, ecc.Point) {
	order := pubKey.Order()
	m := ecc.Reduce(order, msg)
	// compute C1 = k * G
	c1 := pubKey.New()
	c1.ScalarBaseMult(k)
	// compute s = k * pubKey
	s := pubKey.New()
	s.ScalarMult(pubKey, k)
	// encode message as point M = message * G
	mG := pubKey.New()
	mG.ScalarBaseMult(m)
	// compute C2 = M + s
	c2 := pubKey.New()
	c2.Add(mG, s)
	return c1, c2
}

// GenerateKey generates a new public/private ElGamal encryption key pair.
// The private key is drawn uniformly from the scalar field, skipping the
// values CheckPrivateKey rejects.
func GenerateKey(curve ecc.Point) (publicKey ecc.Point, privateKey *big.Int, err error) {
	order := curve.Order()
	for {
		d, err := rand.Int(rand.Reader, order)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate private key scalar: %w", err)
		}
		if CheckPrivateKey(curve, d) != nil {
			continue
		}
		publicKey = curve.New()
		publicKey.ScalarBaseMult(d)
		return publicKey, d, nil
	}
}

// minPrivateKey is the smallest private key accepted. Keys below it are in
// the range a bounded decryption search covers, so they could be recovered
// from the public key with the same discrete log search.
var minPrivateKey = new(big.Int).Lsh(big.NewInt(1), 32)

// CheckPrivateKey returns an error if the private key is zero, not reduced
// modulo the group order, small enough to be brute forced or maps to the
// identity element.
func CheckPrivateKey(curve ecc.Point, d *big.Int) error {
	if d == nil || d.Sign() <= 0 {
		return fmt.Errorf("%w: private key must be positive", ErrInvalidKey)
	}
	if d.Cmp(curve.Order()) >= 0 {
		return fmt.Errorf("%w: private key not reduced", ErrInvalidKey)
	}
	if d.Cmp(minPrivateKey) < 0 {
		return fmt.Errorf("%w: private key too small", ErrInvalidKey)
	}
	pub := curve.New()
	pub.ScalarBaseMult(d)
	if pub.IsZero() {
		return fmt.Errorf("%w: public key is the identity", ErrInvalidKey)
	}
	return nil
}

// Decrypt decrypts the given ciphertext (c1, c2) using the private key.
// It returns the point M = c2 - d*c1 and the discrete log of M, searched in
// [0, maxMessage]. If no solution is found, returns ErrDecryptionOutOfRange.
func Decrypt(privateKey *big.Int, c1, c2 ecc.Point, maxMessage uint64) (ecc.Point, uint64, error) {
	// Compute M = c2 - d*c1
	dC1 := c2.New()
	dC1.ScalarMult(c1, privateKey)
	dC1.Neg(dC1)

	M := c2.New()
	M.Add(c2, dC1)

	G := c2.New()
	G.SetGenerator()
	message, err := BabyStepGiantStepECC(M, G, maxMessage)
	if err != nil {
		return nil, 0, err
	}
	return M, message, nil
}

// CheckK checks if a given k was used to produce the ciphertext (c1, c2).
// It returns true if c1 == k * G, false otherwise.
func CheckK(c1 ecc.Point, k *big.Int) bool {
	kCheck := c1.New()
	kCheck.ScalarBaseMult(k)
	return kCheck.Equal(c1)
}
