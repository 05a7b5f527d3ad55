// guardian/pkg/compiler/validator.go

package compiler

import "fmt"

// LowConfidence is the level below which the validator flags a rule.
const LowConfidence = 0.7

type RuleError struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Warnings []string    `json:"warnings"`
	Errors   []RuleError `json:"errors"`
}

// ValidateRules checks a parsed rule collection for duplicate identifiers,
// structurally incomplete rules, and low confidence. It never mutates or
// drops rules; duplicates and low confidence are warnings, missing pieces
// are errors.
func ValidateRules(rules []*ParsedRule) ValidationResult {
	var result ValidationResult
	seen := make(map[string]int)

	for _, rule := range rules {
		seen[rule.ID]++
		if seen[rule.ID] > 1 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("duplicate rule ID %q (occurrence %d)", rule.ID, seen[rule.ID]))
		}
		if rule.Condition == nil {
			result.Errors = append(result.Errors, RuleError{
				RuleID:  rule.ID,
				Message: fmt.Sprintf("rule %q has no condition", rule.ID),
			})
		}
		if rule.Action == nil {
			result.Errors = append(result.Errors, RuleError{
				RuleID:  rule.ID,
				Message: fmt.Sprintf("rule %q has no action", rule.ID),
			})
		}
		if rule.Metadata.Confidence < LowConfidence {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("rule %q has low confidence %.2f", rule.ID, rule.Metadata.Confidence))
		}
	}
	return result
}
