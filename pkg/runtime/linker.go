// guardian/pkg/runtime/linker.go

package runtime

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/compiler"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/logging"
)

// CompiledRuleTag marks every violation produced by this pipeline, telling it
// apart from output of other analyzers.
const CompiledRuleTag = "nl-compiled"

// MatchRecord is one located hit, carried from matcher to action and never
// persisted.
type MatchRecord struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

// ViolationRecord is the externally visible output unit.
type ViolationRecord struct {
	ID         string            `json:"id"`
	Severity   compiler.Severity `json:"severity"`
	Message    string            `json:"message"`
	Line       int               `json:"line"`
	Column     int               `json:"column"`
	RuleTag    string            `json:"rule_tag"`
	Suggestion string            `json:"suggestion,omitempty"`
}

type Matcher func(content, language string) []MatchRecord

type ActionFunc func(match MatchRecord) ViolationRecord

type ExecMetadata struct {
	OriginalRule *compiler.ParsedRule `json:"original_rule"`
	CompiledAt   time.Time            `json:"compiled_at"`
}

// ExecutableRule pairs a matcher with an action. Whatever registry loads it
// owns it; the set is discarded wholesale when the owning spec changes.
type ExecutableRule struct {
	ID       string       `json:"id"`
	Match    Matcher      `json:"-"`
	Act      ActionFunc   `json:"-"`
	Metadata ExecMetadata `json:"metadata"`
}

// Link converts usable parsed rules into executable form. A rule that fails
// to link is logged and skipped; the rest still link.
func Link(rules []*compiler.ParsedRule) []*ExecutableRule {
	executable := make([]*ExecutableRule, 0, len(rules))
	for _, rule := range rules {
		linked, err := LinkRule(rule)
		if err != nil {
			logging.Logger.Error().Err(err).Str("rule", rule.ID).Msg("Failed to link rule")
			continue
		}
		executable = append(executable, linked)
	}
	return executable
}

func LinkRule(rule *compiler.ParsedRule) (*ExecutableRule, error) {
	if rule.Condition == nil || rule.Action == nil {
		return nil, fmt.Errorf("rule %q is structurally incomplete", rule.ID)
	}

	matcher, err := buildMatcher(rule.Condition)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rule.ID, err)
	}

	return &ExecutableRule{
		ID:    rule.ID,
		Match: matcher,
		Act:   buildActionFunc(rule),
		Metadata: ExecMetadata{
			OriginalRule: rule,
			CompiledAt:   time.Now().UTC(),
		},
	}, nil
}

func buildMatcher(cond *compiler.Condition) (Matcher, error) {
	switch cond.Kind {
	case compiler.ConditionPattern:
		re, err := regexp.Compile(cond.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", cond.Pattern, err)
		}
		return patternMatcher(re), nil
	case compiler.ConditionMetric:
		return metricMatcher(cond.Metric, cond.Operator, cond.Threshold), nil
	case compiler.ConditionCustom:
		return customMatcher(cond.Predicate), nil
	default:
		return nil, fmt.Errorf("unknown condition kind %q", cond.Kind)
	}
}

// patternMatcher scans content line by line; each line with a hit yields one
// match record with the first hit's 0-based column.
func patternMatcher(re *regexp.Regexp) Matcher {
	return func(content, language string) []MatchRecord {
		var matches []MatchRecord
		for i, line := range strings.Split(content, "\n") {
			loc := re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			matches = append(matches, MatchRecord{
				Line:    i + 1,
				Column:  loc[0],
				Text:    line[loc[0]:loc[1]],
				Context: line,
			})
		}
		return matches
	}
}

// metricMatcher compares one whole-content metric against the threshold and
// yields a single file-level record on success.
func metricMatcher(name, operator string, threshold float64) Matcher {
	return func(content, language string) []MatchRecord {
		value := evaluateMetric(name, content)
		if !compareMetric(value, operator, threshold) {
			return nil
		}
		return []MatchRecord{{
			Line:    1,
			Column:  1,
			Text:    fmt.Sprintf("%s = %g (threshold %s %g)", name, value, operator, threshold),
			Context: "",
		}}
	}
}

func customMatcher(predicate compiler.Predicate) Matcher {
	return func(content, language string) []MatchRecord {
		if predicate == nil || !predicate(content, language) {
			return nil
		}
		return []MatchRecord{{Line: 1, Column: 1, Text: "", Context: ""}}
	}
}

var functionDefRe = regexp.MustCompile(`(?im)\b(?:function\s+\w+|func\s+\w+|def\s+\w+|fn\s+\w+)`)

// evaluateMetric resolves a metric by loose, case-insensitive name matching,
// tried in the order line, char, function. "function lines" therefore
// resolves to the line count; unknown names evaluate to 0.
func evaluateMetric(name, content string) float64 {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "line"):
		return float64(len(strings.Split(content, "\n")))
	case strings.Contains(lower, "char"):
		return float64(len(content))
	case strings.Contains(lower, "function"), strings.Contains(lower, "method"), strings.Contains(lower, "func"):
		return float64(len(functionDefRe.FindAllString(content, -1)))
	default:
		return 0
	}
}

func compareMetric(value float64, operator string, threshold float64) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		logging.Logger.Warn().Str("operator", operator).Msg("Unsupported metric operator")
		return false
	}
}

// buildActionFunc turns the rule's action into an executor producing a fully
// populated violation record per match.
func buildActionFunc(rule *compiler.ParsedRule) ActionFunc {
	return func(match MatchRecord) ViolationRecord {
		message := rule.Action.Message
		if message == "" {
			message = rule.Message
		}
		return ViolationRecord{
			ID:         uuid.NewString(),
			Severity:   rule.Severity,
			Message:    message,
			Line:       match.Line,
			Column:     match.Column,
			RuleTag:    CompiledRuleTag,
			Suggestion: rule.Action.Suggestion,
		}
	}
}
