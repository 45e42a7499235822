package curves

import (
	"fmt"

	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/bjj"
)

const (
	// CurveTypeBabyJubJub is the default curve, the one the transfer
	// circuit works with.
	CurveTypeBabyJubJub = bjj.CurveType
)

// Curves returns the list of supported curve types.
func Curves() []string {
	return []string{CurveTypeBabyJubJub}
}

// New creates a new instance of a Curve implementation based on the provided type string.
// The supported types are defined as constants in this package.
// If the type is not supported, it will panic.
func New(curveType string) ecc.Point {
	switch curveType {
	case CurveTypeBabyJubJub:
		return bjj.New()
	default:
		panic(fmt.Sprintf("unsupported curve type: %s", curveType))
	}
}

// IsValid reports whether the curve type is supported.
func IsValid(curveType string) bool {
	for _, c := range Curves() {
		if c == curveType {
			return true
		}
	}
	return false
}
