package main

import (
	"flag"
	"fmt"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/store"
)

var (
	redisAddr string
	redisDB   int
)

func init() {
	flag.StringVar(&redisAddr, "redis", "localhost:6379", "Redis address")
	flag.IntVar(&redisDB, "db", 0, "Redis database")
	flag.Parse()
}

var demoSpecs = map[string]store.Specification{
	"frontend": {
		Text: "WHEN code contains console.log THEN warn about debug statements\n" +
			"WHEN function has more than 50 lines THEN warn about complexity\n" +
			"code should be consistently formatted",
		Version:     "1.0",
		Author:      "frontend-team",
		Description: "Baseline frontend quality rules",
	},
	"backend": {
		Text: "IF lines > 500 THEN warn about file size\n" +
			"WHEN code contains eval( THEN report a critical security violation\n" +
			"Functions must have descriptive names",
		Version:     "1.0",
		Author:      "backend-team",
		Description: "Baseline backend quality rules",
	},
}

func main() {
	s := store.NewRedisStore(redisAddr, "", redisDB)

	for id, spec := range demoSpecs {
		if err := s.SaveAndPublishSpec(id, spec); err != nil {
			fmt.Printf("Failed to seed specification %s: %v\n", id, err)
			continue
		}
		fmt.Printf("Seeded specification %s\n", id)
	}
}
