// Command setup runs the one time setup of the confidential transfer circuit.
// It stores the constraint system, the proving key and the verifying key in
// the artifact cache, content addressed by their sha256 hash, and prints the
// hashes. Optionally the keys are also exported to plain files.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/config"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/types"
	"github.com/vocdoni/confidential-transfers/zk"
)

// manifest lists the hashes of the artifacts produced by a setup run.
type manifest struct {
	Constraints      int            `json:"constraints"`
	CircuitHash      types.HexBytes `json:"circuitHash"`
	ProvingKeyHash   types.HexBytes `json:"provingKeyHash"`
	VerifyingKeyHash types.HexBytes `json:"verifyingKeyHash"`
}

func main() {
	constraintsLog2 := flag.Int("constraintsLog2", config.DefaultSetupConstraintsLog2, "log2 of the setup capacity in constraints")
	artifactsDir := flag.String("artifactsDir", circuits.BaseDir, "artifact cache directory")
	exportDir := flag.String("export", "", "also export the keys as files to this directory")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	log.Init(*logLevel, "stderr", nil)

	circuits.BaseDir = *artifactsDir
	pk, vk, err := zk.Setup(zk.SetupConfig{MaxConstraintsLog2: *constraintsLog2})
	if err != nil {
		if errors.Is(err, zk.ErrSetupSizeExceeded) {
			log.Fatalf("setup size exceeded, increase --constraintsLog2: %v", err)
		}
		log.Fatal(err)
	}

	ccsData, pkData, err := pk.Bytes()
	if err != nil {
		log.Fatal(err)
	}
	m := &manifest{Constraints: pk.NbConstraints()}
	for _, a := range []struct {
		name    string
		content []byte
		hash    *types.HexBytes
	}{
		{config.CircuitName, ccsData, &m.CircuitHash},
		{config.ProvingKeyName, pkData, &m.ProvingKeyHash},
		{config.VerifyingKeyName, vk.Bytes(), &m.VerifyingKeyHash},
	} {
		artifact, err := circuits.Store(a.content)
		if err != nil {
			log.Fatal(err)
		}
		*a.hash = artifact.Hash
		log.Infow("artifact stored", "name", a.name, "hash", a.hash.String(), "size", len(a.content))
	}

	if *exportDir != "" {
		if err := os.MkdirAll(*exportDir, 0o755); err != nil {
			log.Fatal(err)
		}
		if err := pk.Export(filepath.Join(*exportDir, config.CircuitName),
			filepath.Join(*exportDir, config.ProvingKeyName)); err != nil {
			log.Fatal(err)
		}
		if err := vk.Export(filepath.Join(*exportDir, config.VerifyingKeyName)); err != nil {
			log.Fatal(err)
		}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		manifestPath := filepath.Join(*exportDir, "confidential_transfer"+config.SetupManifestSuffix)
		if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
			log.Fatal(err)
		}
		log.Infow("keys exported", "dir", *exportDir)
	}

	fmt.Printf("constraints:      %d\n", m.Constraints)
	fmt.Printf("circuit:          %s\n", m.CircuitHash)
	fmt.Printf("proving key:      %s\n", m.ProvingKeyHash)
	fmt.Printf("verifying key:    %s\n", m.VerifyingKeyHash)
}
