// guardian/pkg/compiler/synthesizer.go

package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Heuristic condition/action synthesis. The heuristics are deliberately
// approximate string scanning; they are tried in a fixed order and the first
// one that applies wins.

var (
	trailingComparisonRe = regexp.MustCompile(`^(.*?)\s*(>=|<=|==|!=|>|<)\s*(\d+(?:\.\d+)?)\s*$`)
	moreThanRe           = regexp.MustCompile(`(?i)more\s+than\s+(\d+(?:\.\d+)?)`)
	containsVerbRe       = regexp.MustCompile(`(?i)\b(?:contains|includes|has)\b\s+(.+)$`)
	functionWordRe       = regexp.MustCompile(`(?i)\bfunctions?\b`)
)

// knownLiterals are concrete code fragments a condition phrase can name
// directly. Matching is case-insensitive but the pattern keeps the canonical
// spelling.
var knownLiterals = []string{
	"console.log",
	"debugger",
	"alert(",
	"eval(",
	"document.write",
	"todo",
	"fixme",
}

// declarationKeywords yield token-boundary patterns. "function" is absent on
// purpose so the function-length heuristic below stays reachable.
var declarationKeywords = []string{"var", "let", "const", "class", "interface", "enum", "struct"}

// synthesizeCondition turns a condition phrase into one of the three
// condition kinds. predicates holds caller-injected named predicates and is
// consulted right after the explicit-comparison form.
func synthesizeCondition(phrase string, predicates map[string]Predicate) (*Condition, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, fmt.Errorf("empty condition phrase")
	}
	lower := strings.ToLower(phrase)

	// (a) trailing numeric comparison: "lines > 5"
	if m := trailingComparisonRe.FindStringSubmatch(phrase); m != nil && strings.TrimSpace(m[1]) != "" {
		threshold, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable threshold %q: %w", m[3], err)
		}
		return &Condition{
			Kind:      ConditionMetric,
			Metric:    strings.TrimSpace(m[1]),
			Operator:  m[2],
			Threshold: threshold,
		}, nil
	}

	// injected named predicates
	for name, predicate := range predicates {
		if strings.Contains(lower, strings.ToLower(name)) {
			return &Condition{Kind: ConditionCustom, Predicate: predicate}, nil
		}
	}

	// (b) known literal code fragment
	for _, literal := range knownLiterals {
		if strings.Contains(lower, literal) {
			return &Condition{Kind: ConditionPattern, Pattern: regexp.QuoteMeta(literal)}, nil
		}
	}

	// (c) declaration keyword as a token
	for _, keyword := range declarationKeywords {
		if containsWord(lower, keyword) {
			return &Condition{Kind: ConditionPattern, Pattern: `\b` + keyword + `\b`}, nil
		}
	}

	// (d) function length: "function has more than 20 lines"
	if functionWordRe.MatchString(phrase) {
		if m := moreThanRe.FindStringSubmatch(phrase); m != nil {
			threshold, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("unparseable threshold %q: %w", m[1], err)
			}
			return &Condition{
				Kind:      ConditionMetric,
				Metric:    "function_lines",
				Operator:  ">",
				Threshold: threshold,
			}, nil
		}
	}

	// (e) contains/includes/has followed by the sought text
	if m := containsVerbRe.FindStringSubmatch(phrase); m != nil && strings.TrimSpace(m[1]) != "" {
		return &Condition{Kind: ConditionPattern, Pattern: regexp.QuoteMeta(strings.TrimSpace(m[1]))}, nil
	}

	// (f) default: the whole phrase as a literal pattern
	return &Condition{Kind: ConditionPattern, Pattern: regexp.QuoteMeta(phrase)}, nil
}

// synthesizeAction classifies an action phrase and carries it verbatim as the
// message, with a derived suggestion string.
func synthesizeAction(phrase string) (*Action, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, fmt.Errorf("empty action phrase")
	}
	return &Action{
		Kind:       classifyActionKind(phrase),
		Message:    phrase,
		Suggestion: "Consider: " + phrase,
	}, nil
}

func containsWord(text, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(text)
}
