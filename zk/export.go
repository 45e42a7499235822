package zk

import (
	"fmt"

	"github.com/vocdoni/confidential-transfers/circuits"
)

// Export writes the constraint system and the proving key to the given
// files, in the same encoding as Bytes.
func (pk *ProvingKey) Export(ccsPath, keyPath string) error {
	if err := circuits.StoreConstraintSystem(pk.ccs, ccsPath); err != nil {
		return fmt.Errorf("export constraint system: %w", err)
	}
	if err := circuits.StoreProvingKey(pk.pk, keyPath); err != nil {
		return fmt.Errorf("export proving key: %w", err)
	}
	return nil
}

// Export writes the verifying key to the given file, in the same encoding
// as Bytes.
func (vk *VerifyingKey) Export(path string) error {
	if err := circuits.StoreVerificationKey(vk.vk, path); err != nil {
		return fmt.Errorf("export verifying key: %w", err)
	}
	return nil
}
