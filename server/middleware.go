package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/lumenhq/lumen/config"
)

// RequireLogin is middleware that requires that any user is logged in before continuing on.
func RequireLogin[state any](lumen *Lumen, _ state) (context.Context, error) {
	return lumen.Context(), lumen.RequiresLogin()
}

// Debug is middleware that can be inserted anywhere and will print some useful debug information about the current
// request.
func Debug(printFullRequest bool, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if printFullRequest {
			slog.Debug("Debug middleware", "request", r)
		} else {
			slog.Debug("Debug middleware", "path", r.URL.Path)
		}

		h.ServeHTTP(w, r)
	})
}

// SessionMiddleware decodes the session cookie and stores the session and its
// login state in the request context. Handlers created by this server require it.
func (server *Server[state]) SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if server.sessionStore == nil {
				next.ServeHTTP(w, r)
				return
			}
			session, err := server.sessionStore.Get(r, cookieUser)
			if err != nil {
				// An undecodable cookie means Get returned a fresh session,
				// continue with that one.
				slog.Warn("Could not decode the active session, starting a new one", "error", err)
			}
			ctx := context.WithValue(r.Context(), ctxSession, session)
			ctx = buildSessionContext(ctx, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextMiddleware stores the server configuration in the request context so
// handlers and components can retrieve it with [Config].
func (server *Server[state]) ContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxConfig, server.cfg)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HTTPLogger is middleware that will log HTTP requests, including context that might be added by the handler itself
// by calling lumen.LogField.
func HTTPLogger(cfg *config.Config) func(http.Handler) http.Handler {
	sourceFieldName := ""
	if cfg.Log.Verbose || cfg.App.Debug {
		sourceFieldName = "source"
	}
	logger := httplog.NewLogger(cfg.App.Name, httplog.Options{
		LogLevel: cfg.Log.Level.ToSlog(),
		JSON:     cfg.Log.Format == config.LogFormatJSON,
		Concise:  !cfg.Log.Verbose,
		Tags: map[string]string{
			"version": cfg.App.Version,
			"env":     string(cfg.App.Env),
		},
		RequestHeaders:  cfg.Log.Verbose,
		ResponseHeaders: cfg.Log.Verbose,
		QuietDownRoutes: []string{
			"/",
			"/favicon.ico",
			"/ping",
			"/static",
		},
		QuietDownPeriod: 10 * time.Second, //nolint:mnd
		SourceFieldName: sourceFieldName,
	})
	return httplog.RequestLogger(logger)
}
