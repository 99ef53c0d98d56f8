package server

import (
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/core"
	"github.com/lumenhq/lumen/login"
)

const (
	cookieUser = "lumen-user"
)

// The login timestamp is stored as a time.Time inside the gob-encoded cookie.
func init() {
	gob.Register(time.Time{})
}

const (
	sessionLoggedIn   = "lumen-logged-in"
	sessionProvider   = "lumen-provider"
	sessionLoggedInAt = "lumen-logged-in-at"
)

// User data is stored per provider so an application can link multiple provider
// logins to the same session.
func sessionUserKey(provider string, field string) string {
	return fmt.Sprintf("lumen-user-%s-%s", provider, field)
}

func (lumen *Lumen) Session() *sessions.Session {
	session := Session(lumen.Context())
	return configureCookie(lumen.Cfg, session)
}

func configureCookie(cfg *config.Config, session *sessions.Session) *sessions.Session {
	if cfg.IsTest() {
		session.Options.Secure = false
		session.Options.HttpOnly = false
		session.Options.SameSite = http.SameSiteNoneMode
	} else if cfg.App.Debug {
		session.Options.Secure = true
		session.Options.HttpOnly = true
		session.Options.SameSite = http.SameSiteNoneMode
	} else { // production
		session.Options.Secure = true
		session.Options.HttpOnly = true
		session.Options.SameSite = http.SameSiteLaxMode
	}
	return session
}

// LoginUser will log in with the specified provider user data.
func (lumen *Lumen) LoginUser(user *login.UserData) error {
	if user == nil {
		panic("you cannot log in with a nil user")
	}
	if lumen.store == nil {
		panic("you need to specify a session store before logging in")
	}
	session := lumen.Session()
	session.Values[sessionLoggedIn] = true
	session.Values[sessionProvider] = user.Provider
	session.Values[sessionLoggedInAt] = time.Now().UTC()
	session.Values[sessionUserKey(user.Provider, "id")] = user.ID
	session.Values[sessionUserKey(user.Provider, "nickname")] = user.Nickname
	session.Values[sessionUserKey(user.Provider, "name")] = user.Name
	session.Values[sessionUserKey(user.Provider, "email")] = user.Email
	session.Values[sessionUserKey(user.Provider, "avatar")] = user.Avatar
	lumen.User = user
	err := lumen.store.Save(lumen.Request, lumen.Writer, session)
	if err != nil {
		return err
	}
	lumen.LogString("active_user_id", user.ID)
	lumen.rebuildContext()
	return nil
}

// CurrentUser retrieves the session user data for the specified provider.
// If nobody is logged in with that provider, this will return core.ErrUnauthenticated.
func (lumen *Lumen) CurrentUser(provider string) (*login.UserData, error) {
	session := lumen.Session()

	loggedIn, ok := session.Values[sessionLoggedIn].(bool)
	if !ok || !loggedIn {
		return nil, core.ErrUnauthenticated
	}

	id, ok := session.Values[sessionUserKey(provider, "id")].(string)
	if !ok || len(id) == 0 {
		return nil, core.ErrUnauthenticated
	}

	user := login.UserData{
		ID:       id,
		Provider: provider,
	}
	if nickname, ok := session.Values[sessionUserKey(provider, "nickname")].(string); ok {
		user.Nickname = nickname
	}
	if name, ok := session.Values[sessionUserKey(provider, "name")].(string); ok {
		user.Name = name
	}
	if email, ok := session.Values[sessionUserKey(provider, "email")].(string); ok {
		user.Email = email
	}
	if avatar, ok := session.Values[sessionUserKey(provider, "avatar")].(string); ok {
		user.Avatar = avatar
	}
	return &user, nil
}

// LoggedInAt returns the time the active session was last logged in, if any.
func (lumen *Lumen) LoggedInAt() (time.Time, bool) {
	session := lumen.Session()
	at, ok := session.Values[sessionLoggedInAt].(time.Time)
	return at, ok
}

// Utility function that retrieves the user data of the most recent login from the
// current session, if one exists.
// If there is no active session, this will return core.ErrUnauthenticated
func (lumen *Lumen) retrieveUser() (*login.UserData, error) {
	session := lumen.Session()

	loggedIn, ok := session.Values[sessionLoggedIn].(bool)

	// No user data in session
	if !ok || !loggedIn {
		return nil, core.ErrUnauthenticated
	}

	provider, ok := session.Values[sessionProvider].(string)
	if !ok || len(provider) == 0 {
		return nil, fmt.Errorf(
			"invalid provider stored in session: %v",
			session.Values[sessionProvider],
		)
	}

	return lumen.CurrentUser(provider)
}

// Logout will log the current user out and forget all provider logins.
func (lumen *Lumen) Logout() error {
	session := lumen.Session()
	session.Values[sessionLoggedIn] = false
	for key := range session.Values {
		name, ok := key.(string)
		if ok && name != sessionLoggedIn {
			delete(session.Values, key)
		}
	}
	lumen.User = nil
	return session.Store().Save(lumen.Request, lumen.Writer, session)
}
