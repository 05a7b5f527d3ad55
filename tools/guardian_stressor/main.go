package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisAddr   string
	requestRate int
	channel     string
	teams       []string
)

func init() {
	flag.StringVar(&redisAddr, "redis", "localhost:6379", "Redis address")
	flag.IntVar(&requestRate, "rate", 10, "Number of analysis requests per second")
	flag.StringVar(&channel, "channel", "guardian_requests", "Request channel")
	flag.Parse()

	teams = []string{"platform", "frontend", "backend", "mobile"}
}

var contentSnippets = []string{
	`function handler(req) { console.log(req); }`,
	`const value = compute();\nreturn value;`,
	`// TODO clean this up\nvar total = 0;`,
	`def process(items):\n    return [x for x in items]`,
}

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	fmt.Printf("Connected to Redis at %s\n", redisAddr)
	fmt.Printf("Publishing %d analysis requests per second to %s\n", requestRate, channel)

	ticker := time.NewTicker(time.Second / time.Duration(requestRate))
	defer ticker.Stop()

	for range ticker.C {
		request := map[string]string{
			"team":     teams[rand.Intn(len(teams))],
			"language": "javascript",
			"content":  buildContent(),
		}
		payload, err := json.Marshal(request)
		if err != nil {
			fmt.Printf("Error marshaling request: %v\n", err)
			continue
		}

		if err := rdb.Publish(ctx, channel, payload).Err(); err != nil {
			fmt.Printf("Error publishing request: %v\n", err)
			continue
		}

		fmt.Printf("Published request for team %s\n", request["team"])
	}
}

func buildContent() string {
	lines := rand.Intn(4) + 1
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString(contentSnippets[rand.Intn(len(contentSnippets))])
		b.WriteString("\n")
	}
	return b.String()
}
