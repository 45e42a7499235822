package elgamal

import (
	"fmt"
	"math/big"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
)

// maxBabySteps limits the size of the baby step table, so the largest usable
// decryption bound is about 2^48.
const maxBabySteps = 1 << 24

type tableKey struct {
	base  [ecc.PointSize]byte
	bound uint64
}

// babyStepTable holds the precomputed j·G points for j in [0, m) and the
// giant step -m·G.
type babyStepTable struct {
	m     uint64
	steps map[[ecc.PointSize]byte]uint64
	giant ecc.Point
}

// tables caches the baby step tables, which are expensive to build and are
// the same for every decryption with the same base and bound.
var tables, _ = lru.New[tableKey, *babyStepTable](4)

func pointKey(p ecc.Point) [ecc.PointSize]byte {
	var k [ecc.PointSize]byte
	copy(k[:], p.Marshal())
	return k
}

func newBabyStepTable(G ecc.Point, maxMessage uint64) (*babyStepTable, error) {
	m := new(big.Int).Sqrt(new(big.Int).SetUint64(maxMessage)).Uint64() + 1
	if m > maxBabySteps {
		return nil, fmt.Errorf("decryption bound %d too large", maxMessage)
	}
	t := &babyStepTable{
		m:     m,
		steps: make(map[[ecc.PointSize]byte]uint64, m),
	}
	babyStep := G.New()
	for j := uint64(0); j < m; j++ {
		t.steps[pointKey(babyStep)] = j
		babyStep.Add(babyStep, G)
	}
	// giant = m * (-G)
	t.giant = G.New()
	t.giant.ScalarMult(G, new(big.Int).SetUint64(m))
	t.giant.Neg(t.giant)
	return t, nil
}

func babySteps(G ecc.Point, maxMessage uint64) (*babyStepTable, error) {
	key := tableKey{base: pointKey(G), bound: maxMessage}
	if t, ok := tables.Get(key); ok {
		return t, nil
	}
	t, err := newBabyStepTable(G, maxMessage)
	if err != nil {
		return nil, err
	}
	tables.Add(key, t)
	return t, nil
}

// BabyStepGiantStepECC solves M = x*G for x in [0, maxMessage] using the
// baby-step giant-step algorithm. It returns ErrDecryptionOutOfRange if there
// is no such x.
func BabyStepGiantStepECC(M, G ecc.Point, maxMessage uint64) (uint64, error) {
	t, err := babySteps(G, maxMessage)
	if err != nil {
		return 0, err
	}
	giantStep := M.New()
	giantStep.Set(M)
	for i := uint64(0); i <= t.m; i++ {
		if j, found := t.steps[pointKey(giantStep)]; found {
			// x = i*m + j, which may still be past the bound since m*m > maxMessage
			x := i*t.m + j
			if x > maxMessage {
				break
			}
			return x, nil
		}
		giantStep.Add(giantStep, t.giant)
	}
	return 0, ErrDecryptionOutOfRange
}
