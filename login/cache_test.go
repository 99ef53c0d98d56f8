package login_test

import (
	"testing"
	"time"

	"github.com/lumenhq/lumen/login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDataCache(t *testing.T) {
	t.Run("ok: store and retrieve user data", func(t *testing.T) {
		t.Parallel()
		cache := login.NewUserDataCache(time.Minute)
		data := &login.UserData{
			ID:       "1234",
			Nickname: "octocat",
			Provider: "github",
		}

		id, err := cache.Store(data)
		require.Nil(t, err)
		require.NotNil(t, id)

		retrieved, err := cache.Get(id)
		assert.Nil(t, err)
		assert.Equal(t, data, retrieved)
	})

	t.Run("ok: ids survive a string round-trip", func(t *testing.T) {
		t.Parallel()
		cache := login.NewUserDataCache(time.Minute)
		id, err := cache.Store(&login.UserData{ID: "42", Provider: "twitch"})
		require.Nil(t, err)

		parsed, err := login.ParseUserDataCacheID(id.String())
		require.Nil(t, err)

		retrieved, err := cache.Get(parsed)
		assert.Nil(t, err)
		assert.Equal(t, "42", retrieved.ID)
	})

	t.Run("err: unknown id", func(t *testing.T) {
		t.Parallel()
		cache := login.NewUserDataCache(time.Minute)
		id, err := login.ParseUserDataCacheID("b3a4747e-6b34-4bb5-bf57-47648d5bd059")
		require.Nil(t, err)

		_, err = cache.Get(id)
		assert.NotNil(t, err)
	})

	t.Run("err: deleted entries are gone", func(t *testing.T) {
		t.Parallel()
		cache := login.NewUserDataCache(time.Minute)
		id, err := cache.Store(&login.UserData{ID: "42"})
		require.Nil(t, err)

		cache.Delete(id)
		_, err = cache.Get(id)
		assert.NotNil(t, err)
	})

	t.Run("err: entries expire", func(t *testing.T) {
		t.Parallel()
		cache := login.NewUserDataCache(time.Millisecond)
		id, err := cache.Store(&login.UserData{ID: "42"})
		require.Nil(t, err)

		time.Sleep(5 * time.Millisecond)
		_, err = cache.Get(id)
		assert.NotNil(t, err)
	})

	t.Run("err: nil user data cannot be cached", func(t *testing.T) {
		t.Parallel()
		cache := login.NewUserDataCache(time.Minute)
		_, err := cache.Store(nil)
		assert.NotNil(t, err)
	})
}
