// guardian/cmd/guardiand/main.go

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/compiler"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/gate"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/logging"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/runtime"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/scripting"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/store"
)

// Config represents the application configuration
type Config struct {
	LogLevel        string
	LogDestination  string
	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	RequestChannel  string
	BroadcastPort   int
	PingIntervalSec int
	ScriptTimeoutMS int
	Thresholds      gate.Thresholds
	Predicates      map[string]string
}

// GuardianDependencies represents the external dependencies of the application
type GuardianDependencies struct {
	Store       store.Store
	Engine      *runtime.Engine
	Broadcaster *runtime.Broadcaster
	Compiler    *compiler.Compiler
}

// StoreFactory is an interface for creating a store
type StoreFactory interface {
	NewStore(addr, password string, db int) store.Store
}

// AnalysisRequest is the message shape the daemon serves.
type AnalysisRequest struct {
	Team     string `json:"team"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, os.Args, &RealStoreFactory{}); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

func run(ctx context.Context, args []string, storeFactory StoreFactory) error {
	config, err := parseConfig(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := logging.ConfigureLogger(config.LogLevel, config.LogDestination); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	deps, err := setupDependencies(config, storeFactory)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}

	if err := loadSpecifications(deps); err != nil {
		return fmt.Errorf("failed to load specifications: %w", err)
	}

	go func() {
		if err := deps.Broadcaster.Start(); err != nil {
			log.Error().Err(err).Msg("Broadcaster stopped")
		}
	}()

	return runMainLoop(ctx, deps, config)
}

func parseConfig(args []string) (*Config, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	configFile := flags.String("config", "", "Path to configuration file")
	if err := flags.Parse(args[1:]); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "console")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.database", 0)
	v.SetDefault("requests.channel", "guardian_requests")
	v.SetDefault("broadcast.port", 8090)
	v.SetDefault("broadcast.ping_interval", 30)
	v.SetDefault("scripts.timeout_ms", 100)
	v.SetDefault("gate.max_critical", 0)
	v.SetDefault("gate.max_error", 0)
	v.SetDefault("gate.max_warning", 5)

	if *configFile == "" {
		v.SetConfigName("guardian_config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.guardian")
		v.AddConfigPath("/etc/guardian")
	} else {
		v.SetConfigFile(*configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || *configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Info().Msg("No configuration file found, using defaults")
	}

	return &Config{
		LogLevel:        v.GetString("logging.level"),
		LogDestination:  v.GetString("logging.output"),
		RedisAddress:    v.GetString("redis.address"),
		RedisPassword:   v.GetString("redis.password"),
		RedisDB:         v.GetInt("redis.database"),
		RequestChannel:  v.GetString("requests.channel"),
		BroadcastPort:   v.GetInt("broadcast.port"),
		PingIntervalSec: v.GetInt("broadcast.ping_interval"),
		ScriptTimeoutMS: v.GetInt("scripts.timeout_ms"),
		Thresholds: gate.Thresholds{
			MaxCritical: v.GetInt("gate.max_critical"),
			MaxError:    v.GetInt("gate.max_error"),
			MaxWarning:  v.GetInt("gate.max_warning"),
		},
		Predicates: v.GetStringMapString("scripts.predicates"),
	}, nil
}

func setupDependencies(config *Config, storeFactory StoreFactory) (*GuardianDependencies, error) {
	specStore := storeFactory.NewStore(config.RedisAddress, config.RedisPassword, config.RedisDB)

	engine := runtime.NewEngine()
	broadcaster := runtime.NewBroadcaster(engine, config.BroadcastPort,
		time.Duration(config.PingIntervalSec)*time.Second)

	ruleCompiler, err := buildCompiler(config)
	if err != nil {
		return nil, err
	}

	return &GuardianDependencies{
		Store:       specStore,
		Engine:      engine,
		Broadcaster: broadcaster,
		Compiler:    ruleCompiler,
	}, nil
}

// buildCompiler wires configured predicate scripts into the compiler through
// the scripting VM.
func buildCompiler(config *Config) (*compiler.Compiler, error) {
	timeout := time.Duration(config.ScriptTimeoutMS) * time.Millisecond
	vm := scripting.NewSafeVM()

	var opts []compiler.Option
	for name, body := range config.Predicates {
		if err := vm.SetScript(name, body); err != nil {
			return nil, fmt.Errorf("invalid predicate script %q: %w", name, err)
		}
		predicate, err := vm.Predicate(name, timeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, compiler.WithPredicate(name, predicate))
	}
	return compiler.New(opts...), nil
}

// loadSpecifications compiles every stored specification and registers its
// usable rules with the engine.
func loadSpecifications(deps *GuardianDependencies) error {
	ids, err := deps.Store.ListSpecs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := registerSpecification(deps, id); err != nil {
			logging.LogError(logging.Logger, err)
		}
	}
	log.Info().Int("specifications", len(ids)).Msg("Loaded stored specifications")
	return nil
}

func registerSpecification(deps *GuardianDependencies, id string) error {
	spec, err := deps.Store.GetSpec(id)
	if err != nil {
		return logging.NewError(logging.ErrorTypeStore, "failed to fetch specification", err,
			map[string]interface{}{"id": id})
	}
	if spec == nil {
		deps.Engine.RemoveRules(id)
		return nil
	}

	result := deps.Compiler.Compile(spec.Text)
	for _, warning := range result.Warnings {
		log.Warn().Str("id", id).Msg(warning)
	}
	for _, perr := range result.Errors {
		log.Warn().Str("id", id).Int("line", perr.Line).Str("statement", perr.OriginalText).Msg(perr.Message)
	}

	deps.Engine.RegisterRules(id, runtime.Link(result.UsableRules))
	return nil
}

func runMainLoop(ctx context.Context, deps *GuardianDependencies, config *Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	redisStore, ok := deps.Store.(*store.RedisStore)
	if !ok {
		return fmt.Errorf("store is not a RedisStore")
	}

	pubsub := redisStore.Subscribe(config.RequestChannel, store.UpdatesChannel)
	defer pubsub.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("Guardian engine started")

	for {
		select {
		case msg := <-pubsub.Channel():
			if err := processMessage(deps, config, msg); err != nil {
				log.Error().Err(err).Msg("Failed to process message")
			}
		case <-sigChan:
			log.Info().Msg("Shutting down guardian engine")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func processMessage(deps *GuardianDependencies, config *Config, msg *redis.Message) error {
	logging.Logger.Debug().Str("channel", msg.Channel).Str("payload", msg.Payload).Msg("Received message")

	if msg.Channel == store.UpdatesChannel {
		return registerSpecification(deps, msg.Payload)
	}

	var request AnalysisRequest
	if err := json.Unmarshal([]byte(msg.Payload), &request); err != nil {
		return fmt.Errorf("invalid analysis request: %w", err)
	}

	violations := deps.Engine.Analyze(request.Team, request.Content, request.Language)
	decision := gate.Decide(violations, config.Thresholds)

	deps.Broadcaster.Publish(runtime.AnalysisResult{
		Team:       request.Team,
		Language:   request.Language,
		Violations: violations,
		Blocked:    !decision.Allowed,
		Reasons:    decision.Reasons,
		AnalyzedAt: time.Now().UTC(),
	})

	log.Info().
		Str("team", request.Team).
		Int("violations", len(violations)).
		Bool("blocked", !decision.Allowed).
		Msg("Analysis complete")
	return nil
}

// RealStoreFactory implements StoreFactory
type RealStoreFactory struct{}

func (f *RealStoreFactory) NewStore(addr, password string, db int) store.Store {
	return store.NewRedisStore(addr, password, db)
}
