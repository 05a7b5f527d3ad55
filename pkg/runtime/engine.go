// guardian/pkg/runtime/engine.go

package runtime

import (
	"sync"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/logging"
)

// Engine holds the executable-rule registry keyed by team/standard
// identifier. Registration replaces a team's rule set wholesale so a reader
// never observes a partially swapped set; reads for distinct teams do not
// contend beyond the registry lock.
type Engine struct {
	mu       sync.RWMutex
	ruleSets map[string][]*ExecutableRule

	statsMu           sync.Mutex
	analysesRun       int64
	violationsEmitted int64
}

func NewEngine() *Engine {
	return &Engine{
		ruleSets: make(map[string][]*ExecutableRule),
	}
}

// RegisterRules installs the executable rules for a team, replacing any
// previous set.
func (e *Engine) RegisterRules(team string, rules []*ExecutableRule) {
	e.mu.Lock()
	e.ruleSets[team] = rules
	e.mu.Unlock()
	logging.Logger.Info().Str("team", team).Int("rules", len(rules)).Msg("Registered rule set")
}

// RemoveRules discards a team's rule set.
func (e *Engine) RemoveRules(team string) {
	e.mu.Lock()
	delete(e.ruleSets, team)
	e.mu.Unlock()
	logging.Logger.Info().Str("team", team).Msg("Removed rule set")
}

// Rules returns the currently registered set for a team.
func (e *Engine) Rules(team string) []*ExecutableRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ruleSets[team]
}

// Teams lists the identifiers with registered rule sets.
func (e *Engine) Teams() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	teams := make([]string, 0, len(e.ruleSets))
	for team := range e.ruleSets {
		teams = append(teams, team)
	}
	return teams
}

// Analyze runs the team's rules against the content buffer.
func (e *Engine) Analyze(team, content, language string) []ViolationRecord {
	violations := Execute(e.Rules(team), content, language)

	e.statsMu.Lock()
	e.analysesRun++
	e.violationsEmitted += int64(len(violations))
	e.statsMu.Unlock()

	return violations
}

// GetStats reports registry and throughput counters for the broadcaster.
func (e *Engine) GetStats() map[string]interface{} {
	e.mu.RLock()
	teams := len(e.ruleSets)
	rules := 0
	for _, set := range e.ruleSets {
		rules += len(set)
	}
	e.mu.RUnlock()

	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return map[string]interface{}{
		"teams":              teams,
		"rules":              rules,
		"analyses_run":       e.analysesRun,
		"violations_emitted": e.violationsEmitted,
	}
}

// Execute runs every rule's matcher and action over the content, in rule
// order then match order. A fault in one rule is caught and logged; the
// remaining rules still contribute.
func Execute(rules []*ExecutableRule, content, language string) []ViolationRecord {
	var violations []ViolationRecord
	for _, rule := range rules {
		violations = append(violations, runRule(rule, content, language)...)
	}
	return violations
}

func runRule(rule *ExecutableRule, content, language string) (violations []ViolationRecord) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error().Interface("panic", r).Str("rule", rule.ID).Msg("Rule execution failed")
			violations = nil
		}
	}()

	for _, match := range rule.Match(content, language) {
		violations = append(violations, rule.Act(match))
	}
	return violations
}
