package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fxamacker/cbor/v2"
)

// encMode is the deterministic CBOR encoding used for every artifact, so the
// same artifact always produces the same bytes and the same leaf hash.
var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encode mode: %v", err))
	}
	return em
}()

// Artifact encoding/decoding
func encodeArtifact(a any) ([]byte, error) {
	return encMode.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// leafValue is the value stored in the state tree for an encoded account.
func leafValue(encodedAccount []byte) []byte {
	return crypto.Keccak256(encodedAccount)
}
