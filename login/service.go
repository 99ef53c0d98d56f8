package login

import (
	"context"

	"github.com/lumenhq/lumen/core"
)

// UserData is the canonical representation of a user as reported by a login provider.
// Optional fields (e-mail, avatar) are empty strings when the provider omitted them.
type UserData struct {
	// External user id as reported by the provider.
	ID       string `form:"id"       json:"id"`
	Nickname string `form:"nickname" json:"nickname"`
	Name     string `form:"name"     json:"name"`
	Email    string `form:"email"    json:"email"`
	Avatar   string `form:"avatar"   json:"avatar"`
	// The OAuth provider this user logged in with.
	Provider string `form:"provider" json:"provider"`
	// Raw provider payload this data was normalized from, kept for diagnostics.
	Raw map[string]any `form:"-" json:"-"`
}

// TokenData is the canonical representation of an access token as returned by a
// login provider. RefreshToken and ExpiresIn are zero values when the provider
// omitted them; Scopes is never nil.
type TokenData struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	Scopes       []string `json:"scopes"`
}

type Service interface {
	// Return the url that the user should be redirected to to start logging in.
	// Only used in login services that require the user to initiate login (e.g. OAuth)
	GetLoginRedirectURL(provider string, callbackURL string) (string, error)

	// Handle the callback from a login server. The returned UserData might be incomplete if this is a new user and
	// not all data could be retrieved from the chosen provider.
	LoginCallback(
		ctx context.Context,
		provider string,
		code string,
		redirectURL string,
	) (*UserData, *TokenData, error)
}

type AccountService interface {
	// Create a new user and their account.
	CreateUserAccount(
		ctx context.Context,
		data *UserData,
	) (*core.User, error)

	// Find and retrieve a user for the login UserData.
	// If the user does not exist, this will return core.ErrUserDoesNotExist.
	FindUser(
		ctx context.Context,
		data *UserData,
	) (*core.User, error)
}
