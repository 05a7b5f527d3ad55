// guardian/pkg/compiler/lexicon.go

package compiler

import "strings"

// Keyword lexicon consulted by the grammar templates and the generic
// fallback. Entries are checked in order and the first hit wins.

type severityEntry struct {
	keyword  string
	severity Severity
}

var severityLexicon = []severityEntry{
	{"critical", SeverityError},
	{"must", SeverityError},
	{"shall", SeverityError},
	{"should", SeverityWarning},
	{"warning", SeverityWarning},
	{"warn", SeverityWarning},
	{"may", SeverityInfo},
	{"suggest", SeverityInfo},
	{"recommend", SeverityInfo},
}

// fallbackSeverity classifies a statement that matched no grammar template.
func fallbackSeverity(text string) Severity {
	lower := strings.ToLower(text)
	for _, entry := range severityLexicon {
		if strings.Contains(lower, entry.keyword) {
			return entry.severity
		}
	}
	return SeverityInfo
}

// classifyActionKind buckets an action phrase into one of the three action
// categories. Violation is the default.
func classifyActionKind(text string) ActionKind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "warn"):
		return ActionWarning
	case strings.Contains(lower, "suggest"), strings.Contains(lower, "recommend"):
		return ActionSuggestion
	default:
		return ActionViolation
	}
}

// severityForAction maps an action category to the severity a templated rule
// reports at. A "critical" keyword anywhere in the statement upgrades it;
// violations otherwise defer to the modal keyword in the statement and
// default to error.
func severityForAction(kind ActionKind, statementText string) Severity {
	lower := strings.ToLower(statementText)
	if strings.Contains(lower, "critical") {
		return SeverityCritical
	}
	switch kind {
	case ActionWarning:
		return SeverityWarning
	case ActionSuggestion:
		return SeverityInfo
	default:
		for _, entry := range severityLexicon {
			if strings.Contains(lower, entry.keyword) {
				return entry.severity
			}
		}
		return SeverityError
	}
}
