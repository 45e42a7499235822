package elgamal

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
)

// MarshalJSON serializes the Ciphertext to JSON.
func (z *Ciphertext) MarshalJSON() ([]byte, error) {
	// Marshal each point using its own JSON implementation.
	c1Bytes, err := json.Marshal(z.C1)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal c1: %w", err)
	}
	c2Bytes, err := json.Marshal(z.C2)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal c2: %w", err)
	}
	tmp := struct {
		C1 json.RawMessage `json:"c1"`
		C2 json.RawMessage `json:"c2"`
	}{
		C1: c1Bytes,
		C2: c2Bytes,
	}
	return json.Marshal(tmp)
}

// UnmarshalJSON deserializes the Ciphertext from JSON. If the points are not
// allocated, the default curve is used.
func (z *Ciphertext) UnmarshalJSON(data []byte) error {
	var tmp struct {
		C1 json.RawMessage `json:"c1"`
		C2 json.RawMessage `json:"c2"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("failed to unmarshal ciphertext container: %w", err)
	}
	if z.C1 == nil || z.C2 == nil {
		z.C1, z.C2 = curves.New(DefaultCurve), curves.New(DefaultCurve)
	}
	if err := json.Unmarshal(tmp.C1, z.C1); err != nil {
		return fmt.Errorf("failed to unmarshal c1: %w", err)
	}
	if err := json.Unmarshal(tmp.C2, z.C2); err != nil {
		return fmt.Errorf("failed to unmarshal c2: %w", err)
	}
	return nil
}

// MarshalCBOR serializes the Ciphertext to CBOR, as a byte string holding
// the output of Serialize.
func (z *Ciphertext) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(z.Serialize())
}

// UnmarshalCBOR deserializes the Ciphertext from CBOR.
func (z *Ciphertext) UnmarshalCBOR(buf []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(buf, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal ciphertext: %w", err)
	}
	return z.Deserialize(raw)
}
