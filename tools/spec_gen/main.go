package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	statementCount int
	outputFile     string
	seed           int64
)

func init() {
	flag.IntVar(&statementCount, "count", 20, "Number of statements to generate")
	flag.StringVar(&outputFile, "output", "", "Output file (stdout when empty)")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 for nondeterministic)")
	flag.Parse()
}

var actionPhrases = []string{
	"warn about %s",
	"suggest reviewing %s",
	"report a violation for %s",
	"recommend refactoring %s",
}

var qualityAdjectives = []string{
	"readable", "well documented", "consistently formatted", "free of dead code",
}

var codeFragments = []string{
	"console.log", "debugger", "eval(", "TODO", "document.write",
}

var metricNames = []string{"lines", "characters", "functions"}

func main() {
	if seed != 0 {
		gofakeit.Seed(seed)
	}

	var b strings.Builder
	b.WriteString("# Generated specification\n")
	for i := 0; i < statementCount; i++ {
		b.WriteString(randomStatement())
		b.WriteString("\n")
	}

	if outputFile == "" {
		fmt.Print(b.String())
		return
	}
	if err := os.WriteFile(outputFile, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d statements to %s\n", statementCount, outputFile)
}

func randomStatement() string {
	topic := gofakeit.BuzzWord()
	action := fmt.Sprintf(actionPhrases[gofakeit.Number(0, len(actionPhrases)-1)], topic)

	switch gofakeit.Number(0, 4) {
	case 0:
		fragment := codeFragments[gofakeit.Number(0, len(codeFragments)-1)]
		return fmt.Sprintf("WHEN code contains %s THEN %s", fragment, action)
	case 1:
		metric := metricNames[gofakeit.Number(0, len(metricNames)-1)]
		return fmt.Sprintf("IF %s > %d THEN %s", metric, gofakeit.Number(5, 500), action)
	case 2:
		return fmt.Sprintf("WHEN function has more than %d lines THEN %s", gofakeit.Number(10, 100), action)
	case 3:
		return fmt.Sprintf("Functions must %s", gofakeit.HackerVerb())
	default:
		return fmt.Sprintf("code should be %s", qualityAdjectives[gofakeit.Number(0, len(qualityAdjectives)-1)])
	}
}
