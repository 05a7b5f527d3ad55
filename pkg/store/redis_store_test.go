// redis_store_test.go

package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return &RedisStore{client: client}, s
}

func TestSaveAndGetSpec(t *testing.T) {
	store, _ := newTestStore(t)

	spec := Specification{
		Text:        "WHEN code contains console.log THEN warn about debug statements",
		Version:     "1.2",
		Author:      "frontend-team",
		Description: "debug hygiene",
	}
	require.NoError(t, store.SaveSpec("frontend", spec))

	loaded, err := store.GetSpec("frontend")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, spec.Text, loaded.Text)
	assert.Equal(t, "1.2", loaded.Version)
	assert.Equal(t, "frontend-team", loaded.Author)
	assert.False(t, loaded.UpdatedAt.IsZero(), "save stamps UpdatedAt")
}

func TestGetSpecNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.GetSpec("missing")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDeleteSpec(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveSpec("frontend", Specification{Text: "x"}))
	require.NoError(t, store.DeleteSpec("frontend"))

	loaded, err := store.GetSpec("frontend")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestListSpecs(t *testing.T) {
	store, s := newTestStore(t)
	require.NoError(t, store.SaveSpec("frontend", Specification{Text: "a"}))
	require.NoError(t, store.SaveSpec("backend", Specification{Text: "b"}))

	// Unrelated keys are not listed.
	s.Set("other:key", "value")

	ids, err := store.ListSpecs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"frontend", "backend"}, ids)
}

func TestListSpecsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	ids, err := store.ListSpecs()
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

// Saving with publish announces the identifier on the updates channel.
func TestSaveAndPublishSpec(t *testing.T) {
	store, _ := newTestStore(t)

	pubsub := store.SubscribeUpdates()
	require.NotNil(t, pubsub)
	defer pubsub.Close()

	require.NoError(t, store.SaveAndPublishSpec("frontend", Specification{Text: "x"}))

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, UpdatesChannel, msg.Channel)
		assert.Equal(t, "frontend", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("expected a specification update message")
	}

	loaded, err := store.GetSpec("frontend")
	require.NoError(t, err)
	require.NotNil(t, loaded)
}

func TestSaveSpecKeepsExplicitTimestamp(t *testing.T) {
	store, _ := newTestStore(t)
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveSpec("frontend", Specification{Text: "x", UpdatedAt: stamp}))

	loaded, err := store.GetSpec("frontend")
	require.NoError(t, err)
	assert.True(t, stamp.Equal(loaded.UpdatedAt))
}
