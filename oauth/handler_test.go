package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/render"
	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/login"
	"github.com/lumenhq/lumen/oauth"
	"github.com/lumenhq/lumen/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct{}

func (testState) Close(_ context.Context) {}

func appConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:              "lumen-test",
			AuthenticationKey: strings.Repeat("a", 32),
			EncryptionKey:     strings.Repeat("e", 32),
		},
	}
}

// loginServer builds a server with a single login route for the provider.
func loginServer(
	provider oauth.Provider,
	cfg config.OauthProviderConfig,
	handlers oauth.Handlers,
) *server.Server[testState] {
	s := server.New(testState{}, appConfig())
	s.UseStd(s.SessionMiddleware(), s.ContextMiddleware)
	s.Get("/login/"+provider.Name, oauth.LoginHandler[testState](provider, cfg, handlers))
	return s
}

func get(s *server.Server[testState], target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, target, nil)
	s.ServeHTTP(recorder, request)
	return recorder
}

// jsonServer serves a fixed JSON payload and counts how often it was hit.
func jsonServer(t *testing.T, hits *atomic.Int32, payload any, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if inspect != nil {
			inspect(r)
		}
		render.JSON(w, r, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginHandlerRedirect(t *testing.T) {
	t.Run("ok: requests without a code always redirect to the consent page", func(t *testing.T) {
		s := loginServer(oauth.Github(), config.OauthProviderConfig{
			ID:          "client-id",
			Scope:       []string{"read:user"},
			RedirectURL: "https://app.example.com/login/github",
		}, oauth.Handlers{
			OnSuccess: func(_ *server.Lumen, _ *login.UserData, _ *login.TokenData) error {
				t.Fatal("the redirect leg should never dispatch a success")
				return nil
			},
		})

		recorder := get(s, "/login/github")
		require.Equal(t, http.StatusSeeOther, recorder.Code)

		location, err := url.Parse(recorder.Header().Get("Location"))
		require.Nil(t, err)
		assert.Equal(t, "github.com", location.Host)
		assert.Equal(t, "/login/oauth/authorize", location.Path)

		query := location.Query()
		assert.Equal(t, "code", query.Get("response_type"))
		assert.Equal(t, "client-id", query.Get("client_id"))
		assert.Equal(t, "https://app.example.com/login/github", query.Get("redirect_uri"))
		assert.Equal(t, "read:user", query.Get("scope"))
	})

	t.Run("ok: the request url is the default redirect uri", func(t *testing.T) {
		s := loginServer(oauth.Github(), config.OauthProviderConfig{
			ID: "client-id",
		}, oauth.Handlers{})

		recorder := get(s, "/login/github")
		require.Equal(t, http.StatusSeeOther, recorder.Code)

		location, err := url.Parse(recorder.Header().Get("Location"))
		require.Nil(t, err)
		assert.Equal(t, "http://example.com/login/github", location.Query().Get("redirect_uri"))
	})
}

func TestLoginHandlerMissingCredential(t *testing.T) {
	t.Run("err: a missing client id dispatches without any outbound call", func(t *testing.T) {
		t.Setenv("GITHUB_CLIENT_ID", "")
		var hits atomic.Int32
		upstream := jsonServer(t, &hits, map[string]any{}, nil)

		var dispatched *oauth.Error
		s := loginServer(oauth.Github(), config.OauthProviderConfig{
			TokenURL: upstream.URL,
			UserURL:  upstream.URL,
		}, oauth.Handlers{
			OnError: func(_ *server.Lumen, loginErr *oauth.Error) error {
				dispatched = loginErr
				return nil
			},
		})

		get(s, "/login/github?code=abc")
		require.NotNil(t, dispatched)
		assert.Equal(t, oauth.CodeMissingCredential, dispatched.Code)
		assert.Equal(t, int32(0), hits.Load(), "no outbound request should ever be made")
	})

	t.Run("err: without an OnError continuation the error reaches the error handler", func(t *testing.T) {
		t.Setenv("GITHUB_CLIENT_ID", "")
		s := loginServer(oauth.Github(), config.OauthProviderConfig{}, oauth.Handlers{})

		recorder := get(s, "/login/github?code=abc")
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestLoginHandlerTokenExchange(t *testing.T) {
	t.Run("err: a provider error payload stops the flow before the profile fetch", func(t *testing.T) {
		var tokenHits, userHits atomic.Int32
		tokenSrv := jsonServer(t, &tokenHits, map[string]any{
			"error":             "bad_verification_code",
			"error_description": "The code passed is incorrect or expired.",
		}, nil)
		userSrv := jsonServer(t, &userHits, map[string]any{}, nil)

		var dispatched *oauth.Error
		s := loginServer(oauth.Github(), config.OauthProviderConfig{
			ID:       "client-id",
			TokenURL: tokenSrv.URL,
			UserURL:  userSrv.URL,
		}, oauth.Handlers{
			OnError: func(_ *server.Lumen, loginErr *oauth.Error) error {
				dispatched = loginErr
				return nil
			},
		})

		get(s, "/login/github?code=expired")
		require.NotNil(t, dispatched)
		assert.Equal(t, oauth.CodeTokenExchangeFailed, dispatched.Code)
		assert.Equal(t, http.StatusUnauthorized, dispatched.HTTPStatus())
		assert.Equal(t, "bad_verification_code", dispatched.Payload["error"],
			"the raw provider payload should travel along")
		assert.Equal(t, int32(0), userHits.Load(), "the profile should never be fetched")
	})

	t.Run("ok: the token request carries the form-encoded exchange parameters", func(t *testing.T) {
		var tokenHits, userHits atomic.Int32
		var form url.Values
		tokenSrv := jsonServer(t, &tokenHits, map[string]any{"access_token": "tok"},
			func(r *http.Request) {
				require.Nil(t, r.ParseForm())
				form = r.PostForm
			})
		userSrv := jsonServer(t, &userHits, map[string]any{"id": 42, "login": "octocat"}, nil)

		s := loginServer(oauth.Github(), config.OauthProviderConfig{
			ID:          "client-id",
			Secret:      "client-secret",
			RedirectURL: "https://app.example.com/login/github?next=%2Fhome",
			TokenURL:    tokenSrv.URL,
			UserURL:     userSrv.URL,
		}, oauth.Handlers{
			OnSuccess: func(_ *server.Lumen, _ *login.UserData, _ *login.TokenData) error {
				return nil
			},
		})

		get(s, "/login/github?code=valid")
		require.Equal(t, int32(1), tokenHits.Load())
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "client-id", form.Get("client_id"))
		assert.Equal(t, "client-secret", form.Get("client_secret"))
		assert.Equal(t, "valid", form.Get("code"))
		assert.Equal(t, "https://app.example.com/login/github", form.Get("redirect_uri"),
			"the redirect uri should be stripped of its query")
	})

	t.Run("err: an unreachable token endpoint becomes a token exchange failure", func(t *testing.T) {
		var dispatched *oauth.Error
		s := loginServer(oauth.Github(), config.OauthProviderConfig{
			ID:       "client-id",
			TokenURL: "http://127.0.0.1:1/token",
		}, oauth.Handlers{
			OnError: func(_ *server.Lumen, loginErr *oauth.Error) error {
				dispatched = loginErr
				return nil
			},
		})

		get(s, "/login/github?code=abc")
		require.NotNil(t, dispatched)
		assert.Equal(t, oauth.CodeTokenExchangeFailed, dispatched.Code)
		assert.NotEmpty(t, dispatched.Payload["error_description"])
	})
}

func TestLoginHandlerProfileFetch(t *testing.T) {
	t.Run("err: an empty user list dispatches a profile fetch failure", func(t *testing.T) {
		var tokenHits, userHits atomic.Int32
		tokenSrv := jsonServer(t, &tokenHits, map[string]any{"access_token": "tok"}, nil)
		userSrv := jsonServer(t, &userHits, map[string]any{"data": []any{}}, nil)

		var dispatched *oauth.Error
		s := loginServer(oauth.Twitch(), config.OauthProviderConfig{
			ID:       "client-id",
			TokenURL: tokenSrv.URL,
			UserURL:  userSrv.URL,
		}, oauth.Handlers{
			OnError: func(_ *server.Lumen, loginErr *oauth.Error) error {
				dispatched = loginErr
				return nil
			},
		})

		get(s, "/login/twitch?code=valid")
		require.NotNil(t, dispatched)
		assert.Equal(t, oauth.CodeProfileFetchFailed, dispatched.Code)
		assert.Equal(t, http.StatusInternalServerError, dispatched.HTTPStatus())
		assert.Equal(t, "tok", dispatched.Payload["access_token"],
			"the raw token payload should travel along for diagnostics")
	})

	t.Run("ok: the profile request authenticates with bearer token and client id", func(t *testing.T) {
		var tokenHits, userHits atomic.Int32
		tokenSrv := jsonServer(t, &tokenHits, map[string]any{"access_token": "tok"}, nil)
		userSrv := jsonServer(t, &userHits, map[string]any{
			"data": []any{map[string]any{"id": "42", "login": "twitchdev"}},
		}, func(r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "client-id", r.Header.Get("Client-Id"))
		})

		s := loginServer(oauth.Twitch(), config.OauthProviderConfig{
			ID:       "client-id",
			TokenURL: tokenSrv.URL,
			UserURL:  userSrv.URL,
		}, oauth.Handlers{
			OnSuccess: func(_ *server.Lumen, _ *login.UserData, _ *login.TokenData) error {
				return nil
			},
		})

		get(s, "/login/twitch?code=valid")
		assert.Equal(t, int32(1), userHits.Load())
	})
}

func TestLoginHandlerSuccess(t *testing.T) {
	t.Run("ok: a full login establishes a session", func(t *testing.T) {
		var tokenHits, userHits atomic.Int32
		tokenSrv := jsonServer(t, &tokenHits, map[string]any{
			"access_token":  "tok",
			"refresh_token": "refresh",
			"expires_in":    3600,
		}, nil)
		userSrv := jsonServer(t, &userHits, map[string]any{
			"data": []any{map[string]any{
				"id":                "141981764",
				"login":             "twitchdev",
				"display_name":      "TwitchDev",
				"email":             "not-real@email.com",
				"profile_image_url": "https://static-cdn.jtvnw.net/example.png",
			}},
		}, nil)

		s := loginServer(oauth.Twitch(), config.OauthProviderConfig{
			ID:       "client-id",
			TokenURL: tokenSrv.URL,
			UserURL:  userSrv.URL,
		}, oauth.Handlers{
			OnSuccess: func(lumen *server.Lumen, user *login.UserData, token *login.TokenData) error {
				assert.Equal(t, "141981764", user.ID)
				assert.Equal(t, "twitchdev", user.Nickname)
				assert.Equal(t, "TwitchDev", user.Name)
				assert.Equal(t, "not-real@email.com", user.Email)
				assert.Equal(t, "https://static-cdn.jtvnw.net/example.png", user.Avatar)

				assert.Equal(t, "tok", token.AccessToken)
				assert.Equal(t, "refresh", token.RefreshToken)
				assert.Equal(t, int64(3600), token.ExpiresIn)
				require.NotNil(t, token.Scopes, "a missing scope should default to an empty list")
				assert.Empty(t, token.Scopes)

				if err := lumen.LoginUser(user); err != nil {
					return err
				}
				lumen.Redirect("/")
				return nil
			},
		})

		recorder := get(s, "/login/twitch?code=valid")
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, "/", recorder.Header().Get("Location"))

		cookies := recorder.Result().Cookies()
		require.NotEmpty(t, cookies, "a successful login should write the session cookie")
		assert.Equal(t, "lumen-user", cookies[0].Name)
	})

	t.Run("ok: granted scopes survive normalization", func(t *testing.T) {
		var tokenHits, userHits atomic.Int32
		tokenSrv := jsonServer(t, &tokenHits, map[string]any{
			"access_token": "tok",
			"scope":        []any{"user:read:email", "channel:read:subscriptions"},
		}, nil)
		userSrv := jsonServer(t, &userHits, map[string]any{
			"data": []any{map[string]any{"id": "42", "login": "twitchdev"}},
		}, nil)

		var scopes []string
		s := loginServer(oauth.Twitch(), config.OauthProviderConfig{
			ID:       "client-id",
			TokenURL: tokenSrv.URL,
			UserURL:  userSrv.URL,
		}, oauth.Handlers{
			OnSuccess: func(_ *server.Lumen, _ *login.UserData, token *login.TokenData) error {
				scopes = token.Scopes
				return nil
			},
		})

		get(s, "/login/twitch?code=valid")
		assert.Equal(t, []string{"user:read:email", "channel:read:subscriptions"}, scopes)
	})
}
