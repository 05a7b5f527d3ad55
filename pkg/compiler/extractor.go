// guardian/pkg/compiler/extractor.go

package compiler

import "strings"

// ExtractStatements splits raw specification text into candidate statements.
// Blank lines and comment lines are dropped; line numbers are 1-based and
// refer to the original text. Any input, including empty text, is valid.
func ExtractStatements(text string) []Statement {
	var statements []Statement
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		statements = append(statements, Statement{
			Text:       trimmed,
			LineNumber: i + 1,
		})
	}
	return statements
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//")
}
