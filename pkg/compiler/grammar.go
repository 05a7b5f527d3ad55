// guardian/pkg/compiler/grammar.go

package compiler

import (
	"regexp"
	"strings"
	"time"
)

// A grammarTemplate recognizes one phrasing style and builds a ParsedRule
// from it. Templates are tried in registration order and the first whose
// structural test succeeds wins, so the order below is part of the contract.
type grammarTemplate struct {
	name       string
	confidence float64
	matches    func(text string) bool
	build      builderFunc
}

type builderFunc func(c *Compiler, stmt Statement, id string, confidence float64) (*ParsedRule, error)

var (
	whenThenRe = regexp.MustCompile(`(?i)\bWHEN\s+(.+?)\s+THEN\s+(.+)$`)
	ifThenRe   = regexp.MustCompile(`(?i)\bIF\s+(.+?)\s+THEN\s+(.+)$`)
	// subject ... modal ... requirement
	functionReqRe = regexp.MustCompile(`(?i)^(.*?\b(?:functions?|methods?)\b.*?)\s+\b(?:must|should|shall|may)\b\s+(.+)$`)
	namingReqRe   = regexp.MustCompile(`(?i)^(.*?\b(?:variables?|names?|naming|constants?|declarations?)\b.*?)\s+\b(?:must|should|shall|may)\b\s+(.+)$`)
	qualityRe     = regexp.MustCompile(`(?i)^code\s+(?:should|must)\s+(.+)$`)
)

// builtinTemplates returns the fixed priority-ordered template list. Each
// call returns a fresh slice so compilations never share state.
func builtinTemplates() []grammarTemplate {
	return []grammarTemplate{
		{
			name:       "when_then",
			confidence: 0.90,
			matches:    func(text string) bool { return whenThenRe.MatchString(text) },
			build:      buildConditionalRule(whenThenRe),
		},
		{
			name:       "if_then",
			confidence: 0.85,
			matches:    func(text string) bool { return ifThenRe.MatchString(text) },
			build:      buildConditionalRule(ifThenRe),
		},
		{
			name:       "function_requirement",
			confidence: 0.80,
			matches:    func(text string) bool { return functionReqRe.MatchString(text) },
			build:      buildRequirementRule(functionReqRe),
		},
		{
			name:       "naming_convention",
			confidence: 0.75,
			matches:    func(text string) bool { return namingReqRe.MatchString(text) },
			build:      buildRequirementRule(namingReqRe),
		},
		{
			name:       "quality_statement",
			confidence: 0.70,
			matches:    func(text string) bool { return qualityRe.MatchString(text) },
			build:      buildQualityRule,
		},
	}
}

// buildConditionalRule handles WHEN/THEN and IF/THEN statements. An optional
// trailing SHALL clause rides along inside the action capture, where the
// lexicon picks it up as an error-severity keyword.
func buildConditionalRule(re *regexp.Regexp) builderFunc {
	return func(c *Compiler, stmt Statement, id string, confidence float64) (*ParsedRule, error) {
		m := re.FindStringSubmatch(stmt.Text)
		condition, err := synthesizeCondition(m[1], c.predicates)
		if err != nil {
			return nil, err
		}
		action, err := synthesizeAction(m[2])
		if err != nil {
			return nil, err
		}
		return newRule(id, stmt, condition, action, confidence), nil
	}
}

// buildRequirementRule handles "subject must/should ..." statements for
// function and naming requirements. The subject phrase becomes the condition
// and the requirement phrase becomes the action.
func buildRequirementRule(re *regexp.Regexp) builderFunc {
	return func(c *Compiler, stmt Statement, id string, confidence float64) (*ParsedRule, error) {
		m := re.FindStringSubmatch(stmt.Text)
		condition, err := synthesizeCondition(m[1], c.predicates)
		if err != nil {
			return nil, err
		}
		action, err := synthesizeAction(m[2])
		if err != nil {
			return nil, err
		}
		return newRule(id, stmt, condition, action, confidence), nil
	}
}

// buildQualityRule handles bare "code should/must ..." statements. There is
// no extractable structure to match against, so the condition is an
// unconditionally true predicate and the statement reads as advice about the
// whole content.
func buildQualityRule(c *Compiler, stmt Statement, id string, confidence float64) (*ParsedRule, error) {
	m := qualityRe.FindStringSubmatch(stmt.Text)
	action, err := synthesizeAction(m[1])
	if err != nil {
		return nil, err
	}
	condition := &Condition{
		Kind:      ConditionCustom,
		Predicate: func(content, language string) bool { return true },
	}
	return newRule(id, stmt, condition, action, confidence), nil
}

// buildGenericRule is the fallback for statements matching no template. The
// rule never fires (always-false predicate) but is kept for diagnostics; its
// 0.3 confidence sits below the usability threshold on purpose.
func buildGenericRule(stmt Statement, id string) *ParsedRule {
	condition := &Condition{
		Kind:      ConditionCustom,
		Predicate: func(content, language string) bool { return false },
	}
	action := &Action{
		Kind:       ActionSuggestion,
		Message:    stmt.Text,
		Suggestion: stmt.Text,
	}
	rule := newRule(id, stmt, condition, action, genericConfidence)
	rule.Severity = fallbackSeverity(stmt.Text)
	return rule
}

func newRule(id string, stmt Statement, condition *Condition, action *Action, confidence float64) *ParsedRule {
	return &ParsedRule{
		ID:        id,
		Condition: condition,
		Action:    action,
		Severity:  severityForAction(action.Kind, stmt.Text),
		Message:   stmt.Text,
		Metadata: RuleMetadata{
			OriginalText: stmt.Text,
			Confidence:   confidence,
			ParsedAt:     time.Now().UTC(),
		},
	}
}

// suggestionFor proposes a correction for a statement whose builder failed.
func suggestionFor(text string) string {
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "WHEN") || strings.Contains(upper, "IF") {
		return "use the form 'WHEN <condition> THEN <action>'"
	}
	return "state the rule as 'WHEN <condition> THEN <action>' or 'code should <requirement>'"
}
