// Package testutil holds helpers shared by the tests of several packages:
// deterministic accounts and a single circuit setup per test binary.
package testutil

import (
	"os"
	"sync"
	"testing"

	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/zk"
)

var (
	setupOnce    sync.Once
	provingKey   *zk.ProvingKey
	verifyingKey *zk.VerifyingKey
	setupErr     error
)

// RunCircuitTests reports whether the tests that run the groth16 backend are
// enabled, with the RUN_CIRCUIT_TESTS environment variable.
func RunCircuitTests() bool {
	v := os.Getenv("RUN_CIRCUIT_TESTS")
	return v != "" && v != "false"
}

// SkipIfNoCircuitTests skips the test if RUN_CIRCUIT_TESTS is not set.
func SkipIfNoCircuitTests(tb testing.TB) {
	tb.Helper()
	if !RunCircuitTests() {
		tb.Skip("skipping circuit tests...")
	}
}

// Keys returns a proving and verifying key pair for the transfer circuit. The
// setup runs once per test binary and the keys are shared by every caller.
// The test is skipped if circuit tests are disabled.
func Keys(tb testing.TB) (*zk.ProvingKey, *zk.VerifyingKey) {
	tb.Helper()
	SkipIfNoCircuitTests(tb)
	setupOnce.Do(func() {
		provingKey, verifyingKey, setupErr = zk.Setup(zk.SetupConfig{})
	})
	if setupErr != nil {
		tb.Fatalf("circuit setup: %v", setupErr)
	}
	return provingKey, verifyingKey
}

// KeyPair returns the key pair derived from seed on the default curve.
func KeyPair(tb testing.TB, seed string) *elgamal.KeyPair {
	tb.Helper()
	kp, err := elgamal.KeyPairFromSeed(curves.New(elgamal.DefaultCurve), []byte(seed))
	if err != nil {
		tb.Fatalf("key pair from seed %q: %v", seed, err)
	}
	return kp
}
