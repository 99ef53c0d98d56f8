package oauth

import (
	"fmt"

	"github.com/lumenhq/lumen/login"
)

const (
	githubAuthURL  = "https://github.com/login/oauth/authorize"
	githubTokenURL = "https://github.com/login/oauth/access_token"
	githubUserURL  = "https://api.github.com/user"
)

// Github returns the provider descriptor for GitHub OAuth logins.
// GitHub exposes the user's e-mail on the default profile, so no extra scope is
// appended for EmailRequired; request "user:email" explicitly if you need access
// to private addresses.
func Github() Provider {
	return Provider{
		Name:          "github",
		AuthURL:       githubAuthURL,
		TokenURL:      githubTokenURL,
		UserURL:       githubUserURL,
		UserRecord:    objectUserRecord,
		NormalizeUser: normalizeGithubUser,
	}
}

// objectUserRecord handles providers whose user endpoint returns the record
// directly as a JSON object.
func objectUserRecord(payload map[string]any) (map[string]any, bool) {
	if len(payload) == 0 || payload["id"] == nil {
		return nil, false
	}
	return payload, true
}

func normalizeGithubUser(record map[string]any) (*login.UserData, error) {
	id, ok := record["id"]
	if !ok || id == nil {
		return nil, fmt.Errorf("cannot parse github user data: %q", record)
	}
	switch id.(type) {
	// Decoding into a map turns the numeric github ids into f64
	case float64:
		id = fmt.Sprintf("%.0f", id)
	}
	idString, ok := id.(string)
	if !ok {
		return nil, fmt.Errorf("cannot parse github user id: %v", id)
	}

	user := login.UserData{
		ID:       idString,
		Provider: "github",
		Raw:      record,
	}
	if nickname, ok := record["login"].(string); ok {
		user.Nickname = nickname
	}
	if name, ok := record["name"].(string); ok {
		user.Name = name
	}
	if email, ok := record["email"].(string); ok {
		user.Email = email
	}
	if avatar, ok := record["avatar_url"].(string); ok {
		user.Avatar = avatar
	}
	return &user, nil
}
