// guardian/pkg/store/redis_store.go

package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/logging"
)

var ctx = context.Background()

const (
	specKeyPrefix = "spec:"

	// UpdatesChannel carries the identifier of every published specification
	// change so daemons can recompile.
	UpdatesChannel = "spec_updates"
)

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and returns the store. Startup cannot
// proceed without the store, so a failed connection is fatal.
func NewRedisStore(addr, password string, db int) *RedisStore {
	logging.Logger.Info().Str("addr", addr).Int("db", db).Msg("Connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	_, err := client.Ping(ctx).Result()
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	logging.Logger.Info().Msg("Successfully connected to Redis")

	return &RedisStore{client: client}
}

// SaveSpec stores a specification under its identifier. The value is
// serialized to JSON before being stored.
func (s *RedisStore) SaveSpec(id string, spec Specification) error {
	if spec.UpdatedAt.IsZero() {
		spec.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, specKeyPrefix+id, data, 0).Err()
}

// SaveAndPublishSpec stores the specification and announces the change on
// the updates channel.
func (s *RedisStore) SaveAndPublishSpec(id string, spec Specification) error {
	if err := s.SaveSpec(id, spec); err != nil {
		logging.Logger.Error().Err(err).Str("id", id).Msg("Failed to save specification")
		return err
	}
	if err := s.client.Publish(ctx, UpdatesChannel, id).Err(); err != nil {
		logging.Logger.Error().Err(err).Str("id", id).Msg("Failed to publish specification update")
		return err
	}
	logging.Logger.Info().Str("id", id).Msg("Saved and published specification")
	return nil
}

// GetSpec returns the stored specification, or nil when the identifier is
// unknown.
func (s *RedisStore) GetSpec(id string) (*Specification, error) {
	data, err := s.client.Get(ctx, specKeyPrefix+id).Result()
	if err == redis.Nil {
		logging.Logger.Debug().Str("id", id).Msg("Specification not found")
		return nil, nil
	} else if err != nil {
		logging.Logger.Error().Err(err).Str("id", id).Msg("Failed to get specification")
		return nil, err
	}

	var spec Specification
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		logging.Logger.Error().Err(err).Str("id", id).Str("data", data).Msg("Failed to unmarshal specification")
		return nil, err
	}
	return &spec, nil
}

func (s *RedisStore) DeleteSpec(id string) error {
	return s.client.Del(ctx, specKeyPrefix+id).Err()
}

// ListSpecs scans for all stored specification identifiers.
func (s *RedisStore) ListSpecs() ([]string, error) {
	var ids []string
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, specKeyPrefix+"*", 100).Result()
		if err != nil {
			logging.Logger.Error().Err(err).Msg("Failed to scan specifications")
			return nil, err
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, specKeyPrefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

// SubscribeUpdates subscribes to specification change announcements.
func (s *RedisStore) SubscribeUpdates() *redis.PubSub {
	return s.subscribe(UpdatesChannel)
}

// Subscribe subscribes to arbitrary channels, e.g. the analysis request
// channel the daemon serves.
func (s *RedisStore) Subscribe(channels ...string) *redis.PubSub {
	return s.subscribe(channels...)
}

func (s *RedisStore) subscribe(channels ...string) *redis.PubSub {
	logging.Logger.Info().Strs("channels", channels).Msg("Subscribing to Redis channels")

	pubsub := s.client.Subscribe(ctx, channels...)

	// Verify the subscription was successful
	_, err := pubsub.Receive(ctx)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("Failed to subscribe to Redis channels")
		return nil
	}

	logging.Logger.Info().Strs("channels", channels).Msg("Successfully subscribed to Redis channels")
	return pubsub
}
