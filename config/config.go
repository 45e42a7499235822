// Package config holds the defaults shared by the binaries and the services
// of the ledger node.
package config

import "math"

const (
	// DefaultDecryptionBound is the largest value wallets try when decrypting
	// a balance. Values are 32 bit amounts.
	DefaultDecryptionBound = math.MaxUint32
	// DefaultSetupConstraintsLog2 is the log2 of the constraint capacity of
	// the setup.
	DefaultSetupConstraintsLog2 = 17

	// DefaultAPIHost and DefaultAPIPort are the listening address of the
	// ledger API.
	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 9090

	// DefaultDataDir is the directory of the ledger database, relative to the
	// user home directory.
	DefaultDataDir = ".confidential-ledger"
	// DataDirEnv overrides the default data directory.
	DataDirEnv = "CONFIDENTIAL_DATA_DIR"
	// ArtifactsDirEnv overrides the circuit artifact cache directory.
	ArtifactsDirEnv = "CONFIDENTIAL_ARTIFACTS_DIR"
	// CheckHashesEnv set to "false" or "0" skips the artifact hash checks.
	CheckHashesEnv = "CONFIDENTIAL_CHECK_HASHES"

	// GenesisMetadataKey marks a database where the genesis was applied.
	GenesisMetadataKey = "genesis"
	// VerifyingKeyMetadataKey stores the hash of the verifying key the ledger
	// was started with.
	VerifyingKeyMetadataKey = "verifyingKey"
)

// Artifact names used to store the circuit keys. The files are content
// addressed by their sha256 hash, the names are only used in logs and in the
// setup output.
const (
	CircuitName         = "confidential_transfer.ccs"
	ProvingKeyName      = "confidential_transfer.pk"
	VerifyingKeyName    = "confidential_transfer.vk"
	SetupManifestSuffix = ".hashes.json"
)
