// guardian/pkg/compiler/structs.go
package compiler

import "time"

// Severity levels a rule can report at.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Statement is one candidate line of specification text.
type Statement struct {
	Text       string `json:"text"`
	LineNumber int    `json:"line_number"`
}

// ConditionKind tags the variant carried by a Condition.
type ConditionKind string

const (
	ConditionPattern ConditionKind = "pattern"
	ConditionMetric  ConditionKind = "metric"
	ConditionCustom  ConditionKind = "custom"
)

// Predicate is the opaque decision behind a custom condition. Implementations
// are injected by the caller (see pkg/scripting for script-backed ones).
type Predicate func(content, language string) bool

// Condition is a tagged union: exactly the fields for its Kind are set.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Pattern   string        `json:"pattern,omitempty"`
	Metric    string        `json:"metric,omitempty"`
	Operator  string        `json:"operator,omitempty"`
	Threshold float64       `json:"threshold,omitempty"`
	Predicate Predicate     `json:"-"`
}

// ActionKind tags the variant carried by an Action.
type ActionKind string

const (
	ActionViolation  ActionKind = "violation"
	ActionWarning    ActionKind = "warning"
	ActionSuggestion ActionKind = "suggestion"
)

type Action struct {
	Kind       ActionKind `json:"kind"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
}

type RuleMetadata struct {
	OriginalText string    `json:"original_text"`
	Confidence   float64   `json:"confidence"`
	ParsedAt     time.Time `json:"parsed_at"`
}

// ParsedRule is immutable once built; recompilation replaces the whole batch.
type ParsedRule struct {
	ID        string       `json:"id"`
	Condition *Condition   `json:"condition"`
	Action    *Action      `json:"action"`
	Severity  Severity     `json:"severity"`
	Message   string       `json:"message"`
	Metadata  RuleMetadata `json:"metadata"`
}

// ParseError is a diagnostic for a statement that matched a template but
// could not be built. Malformed specification text is normal input, so these
// are values in the result rather than Go errors.
type ParseError struct {
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	Message      string `json:"message"`
	OriginalText string `json:"original_text"`
	Suggestion   string `json:"suggestion"`
}

// CompileResult carries both the usable view and the full diagnostic view of
// one compilation pass. AllRules keeps sub-threshold rules inspectable.
type CompileResult struct {
	UsableRules        []*ParsedRule `json:"usable_rules"`
	AllRules           []*ParsedRule `json:"all_rules"`
	TotalRules         int           `json:"total_rules"`
	SuccessfullyParsed int           `json:"successfully_parsed"`
	OverallConfidence  float64       `json:"overall_confidence"`
	Warnings           []string      `json:"warnings"`
	Errors             []ParseError  `json:"errors"`
}
