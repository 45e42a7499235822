package zk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/types"
)

// ProofSize is the size of the compressed proof encoding.
var ProofSize = emptyProofSize()

func emptyProofSize() int {
	var buf bytes.Buffer
	if _, err := groth16.NewProof(circuits.TransferCurve).WriteTo(&buf); err != nil {
		panic(fmt.Sprintf("encode empty proof: %v", err))
	}
	return buf.Len()
}

// Proof is a groth16 proof of a transfer. Its encoding is fixed size and
// canonical.
type Proof struct {
	proof groth16.Proof
}

// Bytes returns the compressed proof encoding.
func (p *Proof) Bytes() []byte {
	var buf bytes.Buffer
	if _, err := p.proof.WriteTo(&buf); err != nil {
		// writing to a bytes.Buffer does not fail
		panic(fmt.Sprintf("encode proof: %v", err))
	}
	return buf.Bytes()
}

// SetBytes decodes a compressed proof. It rejects a wrong length, trailing
// bytes, points outside the subgroups and any encoding that is not exactly
// the one Bytes produces for the decoded proof. The receiver is only
// modified on success.
func (p *Proof) SetBytes(buf []byte) error {
	if len(buf) != ProofSize {
		return fmt.Errorf("%w: proof must be %d bytes, got %d", ecc.ErrInvalidEncoding, ProofSize, len(buf))
	}
	proof := groth16.NewProof(circuits.TransferCurve)
	n, err := proof.ReadFrom(bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("%w: %v", ecc.ErrInvalidEncoding, err)
	}
	if n != int64(len(buf)) {
		return fmt.Errorf("%w: %d trailing bytes", ecc.ErrInvalidEncoding, int64(len(buf))-n)
	}
	decoded := &Proof{proof: proof}
	if !bytes.Equal(decoded.Bytes(), buf) {
		return fmt.Errorf("%w: non-canonical proof", ecc.ErrInvalidEncoding)
	}
	p.proof = proof
	return nil
}

// ProofFromBytes decodes a proof encoded with Bytes.
func ProofFromBytes(buf []byte) (*Proof, error) {
	p := &Proof{}
	if err := p.SetBytes(buf); err != nil {
		return nil, err
	}
	return p, nil
}

// MarshalJSON encodes the proof as a hex string.
func (p *Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(types.HexBytes(p.Bytes()))
}

// UnmarshalJSON decodes a hex string proof.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var buf types.HexBytes
	if err := json.Unmarshal(data, &buf); err != nil {
		return fmt.Errorf("%w: %v", ecc.ErrInvalidEncoding, err)
	}
	return p.SetBytes(buf)
}
