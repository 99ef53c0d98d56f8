package oauth

import (
	"net/http"
	"strings"

	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/login"
)

// Provider describes everything the generic authorization-code flow needs to know
// about a single OAuth provider: its endpoints, the headers its user endpoint
// expects, how to find the user record in the profile response and how to map
// that record onto the canonical [login.UserData] shape.
type Provider struct {
	Name string

	// Default endpoints, used when the caller configuration leaves them empty.
	AuthURL  string
	TokenURL string
	UserURL  string

	// EmailScope is appended to the requested scope when the configuration sets
	// EmailRequired, for providers that gate e-mail access behind a scope.
	EmailScope string

	// ProfileHeaders returns extra headers for the user endpoint request,
	// e.g. the Client-ID header the Twitch API requires next to the bearer token.
	ProfileHeaders func(cfg config.OauthProviderConfig) http.Header

	// UserRecord extracts the single user record from the profile response.
	// It reports false when the response contains no usable record.
	UserRecord func(payload map[string]any) (map[string]any, bool)

	// NormalizeUser maps a user record onto the canonical user shape.
	NormalizeUser func(record map[string]any) (*login.UserData, error)
}

// scope computes the scope list for an authorization redirect: the configured
// scopes, with the provider's e-mail scope appended at most once when the
// configuration requires e-mail access.
func (p Provider) scope(cfg config.OauthProviderConfig) []string {
	scope := cfg.Scope
	if !cfg.EmailRequired || len(p.EmailScope) == 0 {
		return scope
	}
	for _, s := range scope {
		if s == p.EmailScope {
			return scope
		}
	}
	return append(append([]string{}, scope...), p.EmailScope)
}

// normalizeToken maps a raw token payload onto the canonical token shape.
// Missing fields stay at their zero value, except the scope list which defaults
// to an empty slice. Providers report granted scopes either as a list (Twitch)
// or as a single comma-separated string (GitHub).
func normalizeToken(payload map[string]any) *login.TokenData {
	token := login.TokenData{
		Scopes: []string{},
	}
	if access, ok := payload["access_token"].(string); ok {
		token.AccessToken = access
	}
	if refresh, ok := payload["refresh_token"].(string); ok {
		token.RefreshToken = refresh
	}
	if expires, ok := payload["expires_in"].(float64); ok {
		token.ExpiresIn = int64(expires)
	}
	switch scope := payload["scope"].(type) {
	case string:
		for _, s := range strings.FieldsFunc(scope, func(r rune) bool {
			return r == ',' || r == ' '
		}) {
			token.Scopes = append(token.Scopes, s)
		}
	case []any:
		for _, value := range scope {
			if s, ok := value.(string); ok {
				token.Scopes = append(token.Scopes, s)
			}
		}
	}
	return &token
}
