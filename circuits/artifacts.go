package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vocdoni/confidential-transfers/config"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/types"
)

// CheckHashes enables the sha256 check of cached and downloaded artifacts.
// It is disabled with CONFIDENTIAL_CHECK_HASHES=false.
var CheckHashes = true

// BaseDir is the artifact cache. Files are named after the hex sha256 of
// their content. Defaults to CONFIDENTIAL_ARTIFACTS_DIR or
// ~/.cache/confidential-artifacts.
var BaseDir string

func init() {
	switch strings.ToLower(os.Getenv(config.CheckHashesEnv)) {
	case "false", "0":
		CheckHashes = false
	}
	BaseDir = os.Getenv(config.ArtifactsDirEnv)
	if BaseDir != "" {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		log.Warnf("no home directory, caching artifacts in the temp dir: %v", err)
		BaseDir = filepath.Join(os.TempDir(), "confidential-artifacts")
		return
	}
	BaseDir = filepath.Join(home, ".cache", "confidential-artifacts")
}

// ErrHashMismatch is returned when an artifact content does not match its
// hash.
var ErrHashMismatch = errors.New("artifact hash mismatch")

// Artifact is a content addressed circuit file. Content is filled by Load,
// from the cache or from RemoteURL.
type Artifact struct {
	RemoteURL string
	Hash      []byte
	Content   []byte
}

// Load fills the artifact content if it is not loaded yet. The cache is tried
// first; on a miss the artifact is downloaded from RemoteURL and cached.
func (k *Artifact) Load(ctx context.Context) error {
	if len(k.Content) != 0 {
		return nil
	}
	if len(k.Hash) == 0 {
		return fmt.Errorf("artifact hash not provided")
	}
	content, err := readCached(k.Hash)
	if errors.Is(err, fs.ErrNotExist) {
		if k.RemoteURL == "" {
			return fmt.Errorf("artifact %x not cached and no remote url", k.Hash)
		}
		log.Infow("downloading artifact", "url", k.RemoteURL, "hash", hex.EncodeToString(k.Hash))
		content, err = download(ctx, k.RemoteURL, k.Hash)
	}
	if err != nil {
		return err
	}
	k.Content = content
	return nil
}

// Store writes content to the cache under its sha256 hash and returns an
// Artifact pointing to it.
func Store(content []byte) (*Artifact, error) {
	hash := sha256.Sum256(content)
	if err := writeCached(hash[:], content); err != nil {
		return nil, err
	}
	return &Artifact{Hash: hash[:], Content: content}, nil
}

// CircuitArtifacts groups the constraint system and the keys of a circuit.
// Nil artifacts are skipped.
type CircuitArtifacts struct {
	circuitDefinition *Artifact
	provingKey        *Artifact
	verifyingKey      *Artifact
}

// NewCircuitArtifacts returns the artifacts of a circuit; any of them can be
// nil.
func NewCircuitArtifacts(circuit, provingKey, verifyingKey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		circuitDefinition: circuit,
		provingKey:        provingKey,
		verifyingKey:      verifyingKey,
	}
}

// LoadAll loads every non nil artifact.
func (ca *CircuitArtifacts) LoadAll(ctx context.Context) error {
	for _, a := range []struct {
		name     string
		artifact *Artifact
	}{
		{config.CircuitName, ca.circuitDefinition},
		{config.ProvingKeyName, ca.provingKey},
		{config.VerifyingKeyName, ca.verifyingKey},
	} {
		if a.artifact == nil {
			continue
		}
		if err := a.artifact.Load(ctx); err != nil {
			return fmt.Errorf("could not load %s: %w", a.name, err)
		}
	}
	return nil
}

// CircuitDefinition returns the constraint system content, nil if not set.
func (ca *CircuitArtifacts) CircuitDefinition() types.HexBytes {
	return content(ca.circuitDefinition)
}

// ProvingKey returns the proving key content, nil if not set.
func (ca *CircuitArtifacts) ProvingKey() types.HexBytes {
	return content(ca.provingKey)
}

// VerifyingKey returns the verifying key content, nil if not set.
func (ca *CircuitArtifacts) VerifyingKey() types.HexBytes {
	return content(ca.verifyingKey)
}

func content(a *Artifact) types.HexBytes {
	if a == nil {
		return nil
	}
	return a.Content
}

func cachePath(hash []byte) string {
	return filepath.Join(BaseDir, hex.EncodeToString(hash))
}

func checkHash(hash, content []byte) error {
	if !CheckHashes {
		return nil
	}
	if got := sha256.Sum256(content); !bytes.Equal(got[:], hash) {
		return fmt.Errorf("%w: expected %x, got %x", ErrHashMismatch, hash, got)
	}
	return nil
}

// readCached returns the cached content of hash, or an error wrapping
// fs.ErrNotExist on a miss.
func readCached(hash []byte) ([]byte, error) {
	data, err := os.ReadFile(cachePath(hash))
	if err != nil {
		return nil, err
	}
	if err := checkHash(hash, data); err != nil {
		return nil, err
	}
	return data, nil
}

// writeCached stores content through a temporary file so a partial write is
// never seen as a cached artifact.
func writeCached(hash, content []byte) error {
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("could not create artifact cache: %w", err)
	}
	path := cachePath(hash)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("could not write artifact %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("could not write artifact %s: %w", path, err)
	}
	log.Debugw("artifact cached", "path", path, "size", len(content))
	return nil
}

// download fetches url, checks the content against hash and caches it.
func download(ctx context.Context, url string, hash []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact url: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not download %s: %w", url, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnw("could not close artifact response", "url", url, "error", err)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not download %s: http status %d", url, res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("could not download %s: %w", url, err)
	}
	if err := checkHash(hash, data); err != nil {
		return nil, err
	}
	return data, writeCached(hash, data)
}
