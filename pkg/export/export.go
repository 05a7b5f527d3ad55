// guardian/pkg/export/export.go

// Package export converts specification text between plain statements, a
// markdown list form, and a structured JSON document. Formatting only; the
// statements themselves are untouched.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/compiler"
)

// Document is the structured form of a specification.
type Document struct {
	Statements []compiler.Statement `json:"statements"`
	Metadata   map[string]string    `json:"metadata,omitempty"`
}

// ToJSON renders specification text as a structured document.
func ToJSON(text string, metadata map[string]string) ([]byte, error) {
	doc := Document{
		Statements: compiler.ExtractStatements(text),
		Metadata:   metadata,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FromJSON rebuilds plain specification text from a structured document.
func FromJSON(data []byte) (string, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("invalid specification document: %w", err)
	}
	lines := make([]string, 0, len(doc.Statements))
	for _, stmt := range doc.Statements {
		lines = append(lines, stmt.Text)
	}
	return strings.Join(lines, "\n"), nil
}

// ToMarkdown renders specification text as a markdown list, one statement
// per item.
func ToMarkdown(text, title string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("# " + title + "\n\n")
	}
	for _, stmt := range compiler.ExtractStatements(text) {
		b.WriteString("- " + stmt.Text + "\n")
	}
	return b.String()
}

// FromMarkdown strips list markers and headings, returning plain statement
// text. Headings become comment lines so line numbers survive a round trip
// through the extractor.
func FromMarkdown(md string) string {
	var lines []string
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			lines = append(lines, "")
		case strings.HasPrefix(trimmed, "#"):
			lines = append(lines, "# "+strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			lines = append(lines, strings.TrimSpace(trimmed[2:]))
		default:
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}
