package oauth_test

import (
	"testing"

	"github.com/lumenhq/lumen/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGithubUser(t *testing.T) {
	t.Run("ok: full profile", func(t *testing.T) {
		t.Parallel()
		user, err := oauth.Github().NormalizeUser(map[string]any{
			"id":         float64(583231),
			"login":      "octocat",
			"name":       "The Octocat",
			"email":      "octocat@github.com",
			"avatar_url": "https://avatars.githubusercontent.com/u/583231",
		})
		require.Nil(t, err)

		assert.Equal(t, "583231", user.ID, "numeric github ids should normalize to strings")
		assert.Equal(t, "octocat", user.Nickname)
		assert.Equal(t, "The Octocat", user.Name)
		assert.Equal(t, "octocat@github.com", user.Email)
		assert.Equal(t, "https://avatars.githubusercontent.com/u/583231", user.Avatar)
		assert.Equal(t, "github", user.Provider)
		assert.NotNil(t, user.Raw)
	})

	t.Run("ok: optional fields may be missing", func(t *testing.T) {
		t.Parallel()
		user, err := oauth.Github().NormalizeUser(map[string]any{
			"id":    float64(42),
			"login": "ghost",
			"name":  nil,
			"email": nil,
		})
		require.Nil(t, err)

		assert.Equal(t, "42", user.ID)
		assert.Empty(t, user.Name)
		assert.Empty(t, user.Email)
		assert.Empty(t, user.Avatar)
	})

	t.Run("err: missing id", func(t *testing.T) {
		t.Parallel()
		_, err := oauth.Github().NormalizeUser(map[string]any{"login": "ghost"})
		assert.NotNil(t, err)
	})
}

func TestNormalizeTwitchUser(t *testing.T) {
	t.Run("ok: full profile", func(t *testing.T) {
		t.Parallel()
		user, err := oauth.Twitch().NormalizeUser(map[string]any{
			"id":                "141981764",
			"login":             "twitchdev",
			"display_name":      "TwitchDev",
			"email":             "not-real@email.com",
			"profile_image_url": "https://static-cdn.jtvnw.net/jtv_user_pictures/example.png",
		})
		require.Nil(t, err)

		assert.Equal(t, "141981764", user.ID)
		assert.Equal(t, "twitchdev", user.Nickname)
		assert.Equal(t, "TwitchDev", user.Name)
		assert.Equal(t, "not-real@email.com", user.Email)
		assert.Equal(t, "https://static-cdn.jtvnw.net/jtv_user_pictures/example.png", user.Avatar)
		assert.Equal(t, "twitch", user.Provider)
	})

	t.Run("ok: missing email", func(t *testing.T) {
		t.Parallel()
		user, err := oauth.Twitch().NormalizeUser(map[string]any{
			"id":    "42",
			"login": "anonymous",
		})
		require.Nil(t, err)
		assert.Empty(t, user.Email)
	})

	t.Run("err: missing id", func(t *testing.T) {
		t.Parallel()
		_, err := oauth.Twitch().NormalizeUser(map[string]any{"login": "anonymous"})
		assert.NotNil(t, err)
	})
}
