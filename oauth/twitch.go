package oauth

import (
	"fmt"
	"net/http"

	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/login"
)

const (
	twitchAuthURL  = "https://id.twitch.tv/oauth2/authorize"
	twitchTokenURL = "https://id.twitch.tv/oauth2/token"
	twitchUserURL  = "https://api.twitch.tv/helix/users"

	twitchEmailScope = "user:read:email"
)

// Twitch returns the provider descriptor for Twitch OAuth logins.
func Twitch() Provider {
	return Provider{
		Name:       "twitch",
		AuthURL:    twitchAuthURL,
		TokenURL:   twitchTokenURL,
		UserURL:    twitchUserURL,
		EmailScope: twitchEmailScope,
		// The Helix API authenticates with both the bearer token and the app's
		// client id.
		ProfileHeaders: func(cfg config.OauthProviderConfig) http.Header {
			return http.Header{"Client-Id": []string{cfg.ID}}
		},
		UserRecord:    firstDataUserRecord,
		NormalizeUser: normalizeTwitchUser,
	}
}

// firstDataUserRecord handles providers whose user endpoint returns a list of
// records under a "data" key.
func firstDataUserRecord(payload map[string]any) (map[string]any, bool) {
	list, ok := payload["data"].([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	record, ok := list[0].(map[string]any)
	return record, ok
}

func normalizeTwitchUser(record map[string]any) (*login.UserData, error) {
	id, ok := record["id"].(string)
	if !ok || len(id) == 0 {
		return nil, fmt.Errorf("cannot parse twitch user data: %q", record)
	}

	user := login.UserData{
		ID:       id,
		Provider: "twitch",
		Raw:      record,
	}
	if nickname, ok := record["login"].(string); ok {
		user.Nickname = nickname
	}
	if name, ok := record["display_name"].(string); ok {
		user.Name = name
	}
	if email, ok := record["email"].(string); ok {
		user.Email = email
	}
	if avatar, ok := record["profile_image_url"].(string); ok {
		user.Avatar = avatar
	}
	return &user, nil
}
