package circuits

import (
	"github.com/consensys/gnark-crypto/ecc"
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
)

// TransferCurve is the pairing curve of the transfer proof. The circuit is
// defined over its scalar field.
var TransferCurve = ecc.BN254

// TransferEncryptionCurve is the twisted Edwards curve of the account keys and
// ciphertexts, BabyJubJub defined over the scalar field of TransferCurve.
var TransferEncryptionCurve = tedwards.BN254
