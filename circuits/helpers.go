package circuits

import (
	"os"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/vocdoni/confidential-transfers/log"
)

// StoreConstraintSystem stores the constraint system in a file.
func StoreConstraintSystem(cs constraint.ConstraintSystem, filepath string) error {
	// persist the constraint system
	csFd, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer csFd.Close()
	if _, err := cs.WriteTo(csFd); err != nil {
		return err
	}
	log.Debugw("constraint system written", "path", filepath)
	return nil
}

// StoreProvingKey stores the proving key in a file.
func StoreProvingKey(pkey groth16.ProvingKey, filepath string) error {
	fd, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer fd.Close()
	if _, err := pkey.WriteTo(fd); err != nil {
		return err
	}
	log.Debugw("proving key written", "path", filepath)
	return nil
}

// StoreVerificationKey stores the verification key in a file.
func StoreVerificationKey(vkey groth16.VerifyingKey, filepath string) error {
	fd, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer fd.Close()
	if _, err := vkey.WriteTo(fd); err != nil {
		return err
	}
	log.Debugw("verification key written", "path", filepath)
	return nil
}
