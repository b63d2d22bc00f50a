package qnode

import (
	"strings"

	"github.com/pkg/errors"
)

// Method selects how partial derivatives are computed.
type Method byte

// Gradient methods. Best resolves per parameter to Analytic where every
// occurrence supports a shift rule and to Finite otherwise; the realized
// per-parameter mapping only ever contains Analytic or Finite.
const (
	MethodBest     Method = 'B'
	MethodAnalytic Method = 'A'
	MethodFinite   Method = 'F'
)

// String returns the single-letter method name.
func (m Method) String() string {
	switch m {
	case MethodBest, MethodAnalytic, MethodFinite:
		return string(rune(m))
	default:
		return "?"
	}
}

// ParseMethod parses a method name ("A", "F", "B", or "best").
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "ANALYTIC":
		return MethodAnalytic, nil
	case "F", "FINITE":
		return MethodFinite, nil
	case "B", "BEST":
		return MethodBest, nil
	default:
		return 0, errors.Wrapf(ErrUnknownMethod, "%q", s)
	}
}
