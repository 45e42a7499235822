// Package zk wraps the groth16 backend for the confidential transfer
// circuit: the one time setup, the prover and the verifier.
package zk

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/circuits/confidential"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/types"
)

// DefaultMaxConstraintsLog2 is the default setup capacity, 2^17 constraints.
const DefaultMaxConstraintsLog2 = 17

// ErrSetupSizeExceeded is returned by Setup when the compiled circuit does not
// fit in the configured capacity. It is fatal, keys cannot be produced.
var ErrSetupSizeExceeded = errors.New("circuit exceeds setup capacity")

// SetupConfig configures the setup.
type SetupConfig struct {
	// MaxConstraintsLog2 is the log2 of the largest constraint system the
	// setup accepts. Zero means DefaultMaxConstraintsLog2.
	MaxConstraintsLog2 int
}

func (c SetupConfig) capacity() uint64 {
	log2 := c.MaxConstraintsLog2
	if log2 <= 0 {
		log2 = DefaultMaxConstraintsLog2
	}
	return uint64(1) << log2
}

// ProvingKey holds what a prover needs: the compiled constraint system and
// the groth16 proving key. It is only held by parties that build proofs.
type ProvingKey struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
}

// VerifyingKey is the groth16 verifying key of the circuit. It is read only
// once created and can be shared by any number of goroutines.
type VerifyingKey struct {
	vk   groth16.VerifyingKey
	raw  []byte
	hash types.HexBytes
}

// Compile compiles the transfer circuit.
func Compile() (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(circuits.TransferCurve.ScalarField(), r1cs.NewBuilder, confidential.Placeholder())
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return ccs, nil
}

// Setup compiles the circuit, checks that it fits in the configured capacity
// and runs the groth16 setup. The toxic waste is sampled from crypto/rand
// and discarded, so two runs produce different, incompatible keys. Any change
// in the circuit invalidates all the keys previously issued.
func Setup(cfg SetupConfig) (*ProvingKey, *VerifyingKey, error) {
	startTime := time.Now()
	ccs, err := Compile()
	if err != nil {
		return nil, nil, err
	}
	nbConstraints := ccs.GetNbConstraints()
	if size := ecc.NextPowerOfTwo(uint64(nbConstraints)); size > cfg.capacity() {
		return nil, nil, fmt.Errorf("%w: %d constraints need a domain of %d, capacity is %d",
			ErrSetupSizeExceeded, nbConstraints, size, cfg.capacity())
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("setup error: %w", err)
	}
	vkey, err := newVerifyingKey(vk)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("circuit setup done",
		"constraints", nbConstraints,
		"verifyingKey", vkey.Hash().String(),
		"took", time.Since(startTime).String())
	return &ProvingKey{ccs: ccs, pk: pk}, vkey, nil
}

func newVerifyingKey(vk groth16.VerifyingKey) (*VerifyingKey, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode verifying key: %w", err)
	}
	hash := sha256.Sum256(buf.Bytes())
	return &VerifyingKey{vk: vk, raw: buf.Bytes(), hash: hash[:]}, nil
}

// NbConstraints returns the number of constraints of the circuit.
func (pk *ProvingKey) NbConstraints() int {
	return pk.ccs.GetNbConstraints()
}

// Bytes returns the encoded constraint system and proving key.
func (pk *ProvingKey) Bytes() (ccs []byte, key []byte, err error) {
	var ccsBuf, pkBuf bytes.Buffer
	if _, err := pk.ccs.WriteTo(&ccsBuf); err != nil {
		return nil, nil, fmt.Errorf("encode constraint system: %w", err)
	}
	if _, err := pk.pk.WriteTo(&pkBuf); err != nil {
		return nil, nil, fmt.Errorf("encode proving key: %w", err)
	}
	return ccsBuf.Bytes(), pkBuf.Bytes(), nil
}

// LoadProvingKey decodes a constraint system and a proving key encoded with
// ProvingKey.Bytes.
func LoadProvingKey(ccsData, pkData []byte) (*ProvingKey, error) {
	ccs := groth16.NewCS(circuits.TransferCurve)
	if _, err := ccs.ReadFrom(bytes.NewReader(ccsData)); err != nil {
		return nil, fmt.Errorf("decode constraint system: %w", err)
	}
	pk := groth16.NewProvingKey(circuits.TransferCurve)
	if _, err := pk.ReadFrom(bytes.NewReader(pkData)); err != nil {
		return nil, fmt.Errorf("decode proving key: %w", err)
	}
	return &ProvingKey{ccs: ccs, pk: pk}, nil
}

// Bytes returns the encoded verifying key.
func (vk *VerifyingKey) Bytes() []byte {
	return bytes.Clone(vk.raw)
}

// Hash returns the sha256 hash of the encoded verifying key, which is also
// its name in the artifact cache.
func (vk *VerifyingKey) Hash() types.HexBytes {
	return bytes.Clone(vk.hash)
}

// LoadVerifyingKey decodes a verifying key encoded with VerifyingKey.Bytes.
// The points of the key are subgroup checked while decoding.
func LoadVerifyingKey(data []byte) (*VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(circuits.TransferCurve)
	n, err := vk.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode verifying key: %w", err)
	}
	if n != int64(len(data)) {
		return nil, fmt.Errorf("decode verifying key: %d trailing bytes", int64(len(data))-n)
	}
	return newVerifyingKey(vk)
}

// LoadArtifacts decodes the keys of the circuit artifacts, which must be
// loaded already. Missing artifacts give a nil key.
func LoadArtifacts(artifacts *circuits.CircuitArtifacts) (*ProvingKey, *VerifyingKey, error) {
	var pk *ProvingKey
	var vk *VerifyingKey
	var err error
	if ccs, key := artifacts.CircuitDefinition(), artifacts.ProvingKey(); len(ccs) > 0 && len(key) > 0 {
		if pk, err = LoadProvingKey(ccs, key); err != nil {
			return nil, nil, err
		}
	}
	if data := artifacts.VerifyingKey(); len(data) > 0 {
		if vk, err = LoadVerifyingKey(data); err != nil {
			return nil, nil, err
		}
	}
	return pk, vk, nil
}
