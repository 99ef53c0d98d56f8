package server

import (
	"context"

	"github.com/gorilla/sessions"
	"github.com/lumenhq/lumen/config"
)

type contextKey uint

const (
	ctxLoggedIn contextKey = iota
	ctxUserID
	ctxUserName
	ctxProvider
	ctxSession
	ctxConfig
)

func IsLoggedIn(ctx context.Context) bool {
	loggedIn, ok := ctx.Value(ctxLoggedIn).(bool)
	return ok && loggedIn
}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

func UserName(ctx context.Context) string {
	name, _ := ctx.Value(ctxUserName).(string)
	return name
}

// Provider returns the name of the provider the session user most recently
// logged in with, or the empty string if nobody is logged in.
func Provider(ctx context.Context) string {
	provider, _ := ctx.Value(ctxProvider).(string)
	return provider
}

// Session provides access to the current user's session.
// Applications can use this to attach or retrieve custom data from this session.
// Make sure to prefix all custom keys with "app-" so they won't interfere with the Lumen session context.
func Session(ctx context.Context) *sessions.Session {
	return ctx.Value(ctxSession).(*sessions.Session)
}

func Config(ctx context.Context) *config.Config {
	return ctx.Value(ctxConfig).(*config.Config)
}

func buildSessionContext(ctx context.Context, session *sessions.Session) context.Context {
	loggedIn, ok := session.Values[sessionLoggedIn].(bool)
	ctx = context.WithValue(ctx, ctxLoggedIn, ok && loggedIn)

	provider, ok := session.Values[sessionProvider].(string)
	if !ok {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxProvider, provider)

	if id, ok := session.Values[sessionUserKey(provider, "id")].(string); ok {
		ctx = context.WithValue(ctx, ctxUserID, id)
	}
	if name, ok := session.Values[sessionUserKey(provider, "name")].(string); ok {
		ctx = context.WithValue(ctx, ctxUserName, name)
	}

	return ctx
}
