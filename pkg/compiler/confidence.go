// guardian/pkg/compiler/confidence.go

package compiler

// overallConfidence blends parse success ratio with average rule confidence.
// Both halves are 0 for empty input, so the result is always in [0,1].
func overallConfidence(totalStatements int, rules []*ParsedRule, errs []ParseError) float64 {
	successRate := 0.0
	if totalStatements > 0 {
		successRate = float64(totalStatements-len(errs)) / float64(totalStatements)
	}

	avgConfidence := 0.0
	if len(rules) > 0 {
		sum := 0.0
		for _, rule := range rules {
			sum += rule.Metadata.Confidence
		}
		avgConfidence = sum / float64(len(rules))
	}

	return (successRate + avgConfidence) / 2
}

// filterUsable keeps rules strictly above the usability threshold. The full
// collection stays available in CompileResult.AllRules for diagnostics.
func filterUsable(rules []*ParsedRule) []*ParsedRule {
	var usable []*ParsedRule
	for _, rule := range rules {
		if rule.Metadata.Confidence > UsableConfidence {
			usable = append(usable, rule)
		}
	}
	return usable
}
