package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One well-formed WHEN/THEN statement compiles into one usable rule with a
// function-length metric condition and warning severity.
func TestCompileWhenThenFunctionLength(t *testing.T) {
	c := New()
	result := c.Compile("WHEN function has more than 20 lines THEN warn about complexity")

	assert.Equal(t, 1, result.TotalRules)
	assert.Equal(t, 1, result.SuccessfullyParsed)
	require.Len(t, result.UsableRules, 1)

	rule := result.UsableRules[0]
	assert.Equal(t, "when_then_1", rule.ID)
	assert.Equal(t, SeverityWarning, rule.Severity)
	assert.Equal(t, 0.90, rule.Metadata.Confidence)

	require.NotNil(t, rule.Condition)
	assert.Equal(t, ConditionMetric, rule.Condition.Kind)
	assert.Equal(t, "function_lines", rule.Condition.Metric)
	assert.Equal(t, ">", rule.Condition.Operator)
	assert.Equal(t, 20.0, rule.Condition.Threshold)

	require.NotNil(t, rule.Action)
	assert.Equal(t, ActionWarning, rule.Action.Kind)
	assert.Equal(t, "warn about complexity", rule.Action.Message)
}

// Degenerate WHEN/IF statements fall back to generic rules that are recorded
// but never usable.
func TestCompileDegenerateStatements(t *testing.T) {
	c := New()
	result := c.Compile("WHEN THEN\nIF THEN")

	assert.Equal(t, 2, result.TotalRules)
	assert.Equal(t, 2, result.SuccessfullyParsed)
	assert.Empty(t, result.UsableRules)

	require.Len(t, result.AllRules, 2)
	assert.Equal(t, "generic_1", result.AllRules[0].ID)
	assert.Equal(t, "generic_2", result.AllRules[1].ID)
	for _, rule := range result.AllRules {
		assert.Equal(t, 0.3, rule.Metadata.Confidence)
		// Fallback rules never fire during execution.
		assert.Equal(t, ConditionCustom, rule.Condition.Kind)
		assert.False(t, rule.Condition.Predicate("anything", "go"))
		assert.Equal(t, ActionSuggestion, rule.Action.Kind)
	}

	assert.Less(t, result.OverallConfidence, 0.7)
}

// Ordinals are scoped per template, not global, and follow statement order.
func TestCompileOrdinalsPerTemplate(t *testing.T) {
	spec := strings.Join([]string{
		"WHEN code contains console.log THEN warn about debugging",
		"IF lines > 100 THEN warn about file size",
		"WHEN code contains debugger THEN warn about breakpoints",
		"IF characters > 5000 THEN warn about density",
	}, "\n")

	result := New().Compile(spec)
	require.Len(t, result.AllRules, 4)
	assert.Equal(t, "when_then_1", result.AllRules[0].ID)
	assert.Equal(t, "if_then_1", result.AllRules[1].ID)
	assert.Equal(t, "when_then_2", result.AllRules[2].ID)
	assert.Equal(t, "if_then_2", result.AllRules[3].ID)
}

// Counters are local to one Compile call, so recompiling restarts ordinals.
func TestCompileIdempotent(t *testing.T) {
	spec := "WHEN code contains TODO THEN warn about leftovers\ncode should be readable\ngibberish statement"
	c := New()

	first := c.Compile(spec)
	second := c.Compile(spec)

	require.Equal(t, len(first.AllRules), len(second.AllRules))
	for i := range first.AllRules {
		a, b := first.AllRules[i], second.AllRules[i]
		assert.Equal(t, a.ID, b.ID)
		assert.Equal(t, a.Severity, b.Severity)
		assert.Equal(t, a.Message, b.Message)
		assert.Equal(t, a.Metadata.Confidence, b.Metadata.Confidence)
		assert.Equal(t, a.Condition.Kind, b.Condition.Kind)
		assert.Equal(t, a.Condition.Pattern, b.Condition.Pattern)
		assert.Equal(t, a.Action, b.Action)
	}
	assert.Equal(t, first.OverallConfidence, second.OverallConfidence)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestCompileTemplatePriority(t *testing.T) {
	// Mentions a function requirement, but the WHEN/THEN structure wins
	// because it is tried first.
	result := New().Compile("WHEN function has more than 30 lines THEN functions must be split")
	require.Len(t, result.AllRules, 1)
	assert.Equal(t, "when_then_1", result.AllRules[0].ID)

	result = New().Compile("Functions must not exceed fifty lines")
	require.Len(t, result.AllRules, 1)
	assert.Equal(t, "function_requirement_1", result.AllRules[0].ID)
	assert.Equal(t, 0.80, result.AllRules[0].Metadata.Confidence)

	result = New().Compile("Variable names should be descriptive")
	require.Len(t, result.AllRules, 1)
	assert.Equal(t, "naming_convention_1", result.AllRules[0].ID)
	assert.Equal(t, 0.75, result.AllRules[0].Metadata.Confidence)

	result = New().Compile("code should be consistently formatted")
	require.Len(t, result.AllRules, 1)
	rule := result.AllRules[0]
	assert.Equal(t, "quality_statement_1", rule.ID)
	assert.Equal(t, 0.70, rule.Metadata.Confidence)
	// Generic quality statements apply to any content.
	assert.Equal(t, ConditionCustom, rule.Condition.Kind)
	assert.True(t, rule.Condition.Predicate("anything", "go"))
}

func TestCompileEmptyText(t *testing.T) {
	result := New().Compile("")
	assert.Equal(t, 0, result.TotalRules)
	assert.Equal(t, 0, result.SuccessfullyParsed)
	assert.Empty(t, result.UsableRules)
	assert.Equal(t, 0.0, result.OverallConfidence)
}

func TestCompileConfidenceBounds(t *testing.T) {
	inputs := []string{
		"",
		"WHEN THEN",
		"WHEN code contains eval( THEN report a critical security violation",
		"random noise\nmore noise",
		"# only comments",
	}
	for _, input := range inputs {
		result := New().Compile(input)
		assert.GreaterOrEqual(t, result.OverallConfidence, 0.0, "input %q", input)
		assert.LessOrEqual(t, result.OverallConfidence, 1.0, "input %q", input)
	}
}

// The usable set never contains a sub-threshold rule even though the rule
// still counts in the totals.
func TestCompileUsableFilter(t *testing.T) {
	result := New().Compile("completely unstructured statement")
	assert.Equal(t, 1, result.TotalRules)
	assert.Equal(t, 1, result.SuccessfullyParsed)
	assert.Empty(t, result.UsableRules)
	require.Len(t, result.AllRules, 1)
	assert.LessOrEqual(t, result.AllRules[0].Metadata.Confidence, UsableConfidence)

	// Sub-threshold rules also surface a low-confidence warning.
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "low confidence") {
			found = true
		}
	}
	assert.True(t, found, "expected a low-confidence warning, got %v", result.Warnings)
}

// A failing builder produces a diagnostic for that statement and compilation
// moves on to the rest.
func TestCompileBuilderFailureContinues(t *testing.T) {
	c := New(WithTemplate("exploding", 0.95,
		func(text string) bool { return strings.HasPrefix(text, "EXPLODE") },
		func(stmt Statement, id string, confidence float64) (*ParsedRule, error) {
			return nil, fmt.Errorf("boom")
		},
	))

	result := c.Compile("EXPLODE now\nWHEN code contains TODO THEN warn about leftovers")
	assert.Equal(t, 2, result.TotalRules)
	assert.Equal(t, 1, result.SuccessfullyParsed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Line)
	assert.Equal(t, "EXPLODE now", result.Errors[0].OriginalText)
	assert.NotEmpty(t, result.Errors[0].Suggestion)
	require.Len(t, result.UsableRules, 1)
	assert.Equal(t, "when_then_1", result.UsableRules[0].ID)
}

// A panicking builder is contained the same way.
func TestCompileBuilderPanicContained(t *testing.T) {
	c := New(WithTemplate("panicking", 0.95,
		func(text string) bool { return strings.HasPrefix(text, "PANIC") },
		func(stmt Statement, id string, confidence float64) (*ParsedRule, error) {
			panic("builder blew up")
		},
	))

	result := c.Compile("PANIC here\nIF lines > 3 THEN warn about size")
	assert.Equal(t, 1, result.SuccessfullyParsed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "panicked")
	require.Len(t, result.UsableRules, 1)
}

func TestCompileWithInjectedPredicate(t *testing.T) {
	c := New(WithPredicate("license header check", func(content, language string) bool {
		return !strings.Contains(content, "Copyright")
	}))

	result := c.Compile("WHEN the license header check fails THEN warn about missing headers")
	require.Len(t, result.UsableRules, 1)
	cond := result.UsableRules[0].Condition
	assert.Equal(t, ConditionCustom, cond.Kind)
	assert.True(t, cond.Predicate("package main", "go"))
	assert.False(t, cond.Predicate("// Copyright 2024", "go"))
}

func TestCompileStatementLineNumbers(t *testing.T) {
	c := New(WithTemplate("exploding", 0.95,
		func(text string) bool { return strings.HasPrefix(text, "EXPLODE") },
		func(stmt Statement, id string, confidence float64) (*ParsedRule, error) {
			return nil, fmt.Errorf("boom")
		},
	))

	// Comments and blanks shift the failing statement to line 4.
	result := c.Compile("# header\n\nWHEN code contains TODO THEN warn about leftovers\nEXPLODE")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Line)
}
