// guardian/pkg/gate/gate.go

package gate

import (
	"fmt"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/compiler"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/runtime"
)

// Thresholds are the per-severity violation counts a commit may carry before
// it is blocked. Info-level findings never block.
type Thresholds struct {
	MaxCritical int `json:"max_critical"`
	MaxError    int `json:"max_error"`
	MaxWarning  int `json:"max_warning"`
}

type Decision struct {
	Allowed bool                      `json:"allowed"`
	Reasons []string                  `json:"reasons,omitempty"`
	Counts  map[compiler.Severity]int `json:"counts"`
}

// Decide aggregates violation counts against the configured limits.
func Decide(violations []runtime.ViolationRecord, t Thresholds) Decision {
	counts := map[compiler.Severity]int{
		compiler.SeverityInfo:     0,
		compiler.SeverityWarning:  0,
		compiler.SeverityError:    0,
		compiler.SeverityCritical: 0,
	}
	for _, v := range violations {
		counts[v.Severity]++
	}

	decision := Decision{Allowed: true, Counts: counts}
	check := func(severity compiler.Severity, limit int) {
		if counts[severity] > limit {
			decision.Allowed = false
			decision.Reasons = append(decision.Reasons,
				fmt.Sprintf("%d %s violations exceed limit of %d", counts[severity], severity, limit))
		}
	}
	check(compiler.SeverityCritical, t.MaxCritical)
	check(compiler.SeverityError, t.MaxError)
	check(compiler.SeverityWarning, t.MaxWarning)
	return decision
}
