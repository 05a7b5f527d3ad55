// guardian/pkg/compiler/compiler.go

package compiler

import (
	"fmt"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/logging"
)

const (
	// UsableConfidence is the threshold a rule must exceed to be returned in
	// the usable set and eligible for linking.
	UsableConfidence = 0.5

	genericConfidence = 0.3
	genericTemplate   = "generic"
)

// Compiler turns free-form specification text into parsed rules. A Compiler
// is safe for concurrent use: Compile keeps all per-call state local.
type Compiler struct {
	templates  []grammarTemplate
	predicates map[string]Predicate
}

type Option func(*Compiler)

// WithPredicate registers a named custom predicate. Condition phrases that
// mention the name compile to a custom condition backed by it.
func WithPredicate(name string, p Predicate) Option {
	return func(c *Compiler) {
		c.predicates[name] = p
	}
}

// WithTemplate appends an extra grammar template after the built-ins.
func WithTemplate(name string, confidence float64, matches func(string) bool, build func(stmt Statement, id string, confidence float64) (*ParsedRule, error)) Option {
	return func(c *Compiler) {
		c.templates = append(c.templates, grammarTemplate{
			name:       name,
			confidence: confidence,
			matches:    matches,
			build: func(_ *Compiler, stmt Statement, id string, conf float64) (*ParsedRule, error) {
				return build(stmt, id, conf)
			},
		})
	}
}

func New(opts ...Option) *Compiler {
	c := &Compiler{
		templates:  builtinTemplates(),
		predicates: make(map[string]Predicate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs the full pass: extract statements, dispatch each to the first
// matching grammar template (fallback otherwise), aggregate confidence, and
// filter the usable set. It never aborts on sloppy input; diagnostics land in
// the result's Warnings and Errors.
func (c *Compiler) Compile(specText string) *CompileResult {
	statements := ExtractStatements(specText)
	logging.Logger.Debug().Int("statements", len(statements)).Msg("Starting specification compile")

	counters := make(map[string]int) // per-template ordinals, local to this call
	lines := make(map[string]int)    // rule id -> statement line, for validation diagnostics
	var rules []*ParsedRule
	var errs []ParseError

	for _, stmt := range statements {
		rule, perr := c.compileStatement(stmt, counters)
		if perr != nil {
			logging.Logger.Debug().Int("line", perr.Line).Str("statement", stmt.Text).Msg("Statement failed to compile")
			errs = append(errs, *perr)
			continue
		}
		lines[rule.ID] = stmt.LineNumber
		rules = append(rules, rule)
	}

	result := &CompileResult{
		AllRules:           rules,
		TotalRules:         len(statements),
		SuccessfullyParsed: len(rules),
		Errors:             errs,
	}
	result.OverallConfidence = overallConfidence(len(statements), rules, errs)
	result.UsableRules = filterUsable(rules)

	validation := ValidateRules(rules)
	result.Warnings = append(result.Warnings, validation.Warnings...)
	for _, verr := range validation.Errors {
		result.Errors = append(result.Errors, ParseError{
			Line:         lines[verr.RuleID],
			Column:       1,
			Message:      verr.Message,
			OriginalText: originalText(rules, verr.RuleID),
			Suggestion:   "rebuild the rule from a complete WHEN/THEN statement",
		})
	}

	logging.Logger.Info().
		Int("total", result.TotalRules).
		Int("parsed", result.SuccessfullyParsed).
		Int("usable", len(result.UsableRules)).
		Float64("confidence", result.OverallConfidence).
		Msg("Specification compiled")
	return result
}

// compileStatement tries the templates in priority order. A builder failure
// is recorded as a diagnostic and does not stop the compile; a statement no
// template recognizes goes to the generic fallback.
func (c *Compiler) compileStatement(stmt Statement, counters map[string]int) (rule *ParsedRule, perr *ParseError) {
	defer func() {
		if r := recover(); r != nil {
			rule = nil
			perr = &ParseError{
				Line:         stmt.LineNumber,
				Column:       1,
				Message:      fmt.Sprintf("rule builder panicked: %v", r),
				OriginalText: stmt.Text,
				Suggestion:   suggestionFor(stmt.Text),
			}
		}
	}()

	for i := range c.templates {
		tpl := &c.templates[i]
		if !tpl.matches(stmt.Text) {
			continue
		}
		counters[tpl.name]++
		id := fmt.Sprintf("%s_%d", tpl.name, counters[tpl.name])
		built, err := tpl.build(c, stmt, id, tpl.confidence)
		if err != nil {
			return nil, &ParseError{
				Line:         stmt.LineNumber,
				Column:       1,
				Message:      fmt.Sprintf("failed to build %s rule: %v", tpl.name, err),
				OriginalText: stmt.Text,
				Suggestion:   suggestionFor(stmt.Text),
			}
		}
		return built, nil
	}

	counters[genericTemplate]++
	id := fmt.Sprintf("%s_%d", genericTemplate, counters[genericTemplate])
	return buildGenericRule(stmt, id), nil
}

func originalText(rules []*ParsedRule, id string) string {
	for _, r := range rules {
		if r.ID == id {
			return r.Metadata.OriginalText
		}
	}
	return ""
}
