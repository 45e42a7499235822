package elgamal

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"golang.org/x/crypto/blake2b"
)

// seedDomain separates the seed based key derivation from other uses of
// blake2b over the same seed.
var seedDomain = []byte("elgamal_extend")

// KeyPair holds a decryption key and the matching encryption key
// PublicKey = PrivateKey·G. The private key never leaves its holder.
type KeyPair struct {
	PrivateKey *big.Int
	PublicKey  ecc.Point
}

// NewKeyPair generates a random key pair on the given curve.
func NewKeyPair(curve ecc.Point) (*KeyPair, error) {
	pub, priv, err := GenerateKey(curve)
	if err != nil {
		return nil, err
	}
	return &KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// KeyPairFromPrivateKey rebuilds the key pair of a private key after
// checking it with CheckPrivateKey.
func KeyPairFromPrivateKey(curve ecc.Point, privateKey *big.Int) (*KeyPair, error) {
	if err := CheckPrivateKey(curve, privateKey); err != nil {
		return nil, err
	}
	pub := curve.New()
	pub.ScalarBaseMult(privateKey)
	return &KeyPair{PrivateKey: new(big.Int).Set(privateKey), PublicKey: pub}, nil
}

// KeyPairFromSeed deterministically derives a key pair from a seed, as
// blake2b-512("elgamal_extend" || seed) reduced modulo the group order.
func KeyPairFromSeed(curve ecc.Point, seed []byte) (*KeyPair, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: empty seed", ErrInvalidKey)
	}
	h, err := blake2b.New512(nil)
	if err != nil {
		return nil, err
	}
	h.Write(seedDomain)
	h.Write(seed)
	d := new(big.Int).SetBytes(h.Sum(nil))
	d.Mod(d, curve.Order())
	return KeyPairFromPrivateKey(curve, d)
}

// KeyPairFromBytes decodes a private key encoded with PrivateKeyBytes and
// rebuilds the key pair.
func KeyPairFromBytes(curve ecc.Point, buf []byte) (*KeyPair, error) {
	d, err := ecc.ScalarFromBytes(curve.Order(), buf)
	if err != nil {
		return nil, err
	}
	return KeyPairFromPrivateKey(curve, d)
}

// PrivateKeyBytes returns the canonical scalar encoding of the private key.
func (kp *KeyPair) PrivateKeyBytes() []byte {
	return ecc.ScalarBytes(kp.PublicKey.Order(), kp.PrivateKey)
}

// Decrypt recovers the value encrypted in ct, searching in [0, maxValue].
func (kp *KeyPair) Decrypt(ct *Ciphertext, maxValue uint64) (uint64, error) {
	return ct.DecryptBounded(kp.PrivateKey, maxValue)
}
