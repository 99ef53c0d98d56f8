package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/gorilla/sessions"
	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/core"
	"github.com/lumenhq/lumen/login"
)

type Lumen struct {
	Writer  http.ResponseWriter
	Request *http.Request
	Cfg     *config.Config
	// User holds the login data of the most recently used provider, or nil if
	// nobody is logged in.
	User   *login.UserData
	logger *slog.Logger
	store  sessions.Store
}

// Populate populates the Lumen object with fields that need to be retrieved after initialisation.
// E.g. fields that are stored in the active session.
func (lumen *Lumen) populate() {
	if lumen.store != nil {
		lumen.populateUser()
	} else {
		slog.Warn("No session store provided, it will not be possible to log in")
	}
}

func (lumen *Lumen) populateUser() {
	user, err := lumen.retrieveUser()
	if errors.Is(err, core.ErrUnauthenticated) {
		lumen.User = nil
		lumen.LogField("active_user_id", slog.AnyValue(nil))
	} else if err != nil {
		slog.Error("Could not retrieve user object from session", "error", err)
		err = lumen.Logout()
		if err != nil {
			slog.Error("Could not log out of the invalid session", "error", err)
		}
	} else {
		lumen.User = user
		lumen.LogField("active_user_id", slog.StringValue(user.ID))
	}
}

func (lumen *Lumen) StatusCode(code int) {
	lumen.Writer.WriteHeader(code)
}

// Log the specified error message. args is a list of structured fields to add to the error message.
// The arguments should alternate between a field's name (string) and its value (any).
// This behaves the same as [log/slog.Error]
//
// # Example
//
//	lumen.Error("Something went wrong", "error", err, "user", user)
func (lumen *Lumen) Error(msg string, args ...any) {
	lumen.logger.Error(msg, args...)
}

// Log the specified debug message. args is a list of structured fields to add to the message.
// The arguments should alternate between a field's name (string) and its value (any).
// This behaves the same as [log/slog.Debug]
func (lumen *Lumen) Debug(msg string, args ...any) {
	lumen.logger.Debug(msg, args...)
}

// LogString will add the specified field and its value to the current request's span
func (lumen *Lumen) LogString(field string, value string) {
	lumen.LogField(field, slog.StringValue(value))
}

// LogField will add the specified field and its value to the current request's span
//
// # Example
//
// lumen.LogField("provider", slog.StringValue("github"))
func (lumen *Lumen) LogField(field string, value slog.Value) {
	httplog.LogEntrySetField(lumen.Context(), field, value)
}

// Context returns the request's context.
//
// The returned context is always non-nil; it defaults to the
// background context.
//
// The context is canceled when the
// client's connection closes, the request is canceled (with HTTP/2),
// or when the ServeHTTP method returns.
func (lumen *Lumen) Context() context.Context {
	return lumen.Request.Context()
}

// Host specifies the host on which the URL is sought.
// It may be of the form "host:port".
func (lumen *Lumen) Host() string {
	return lumen.Request.Host
}

// Path returns the full path of the request.
func (lumen *Lumen) Path() string {
	return lumen.Request.URL.Path
}

// GetPath returns the value for the named path wildcard in the router pattern
// that matched the request.
// It returns the empty string if the request was not matched against a pattern
// or there is no such wildcard in the pattern.
//
// E.g.: A route defined as `/login/{provider}` can call `GetPath("provider")` to
// return the value for "provider" in the current path.
func (lumen *Lumen) GetPath(key string) string {
	return lumen.Request.PathValue(key)
}

// ParseBody parses the request body into an interface using the form decoder.
//
// # Example:
//
//	var data SomeStruct
//	if err := lumen.ParseBody(&data); err != nil {
//		return fmt.Errorf("cannot parse body: %w", err)
//	}
func (lumen *Lumen) ParseBody(v interface{}) error {
	return render.DecodeForm(lumen.Request.Body, v)
}

// GetQuery returns the first value associated with the given query parameter in the request url.
// If there are no values set for the query param, this returns the empty string.
func (lumen *Lumen) GetQuery(param string) string {
	return lumen.Request.URL.Query().Get(param)
}

// GetHeader returns the first value associated with the given header in the request.
// If there are no values set for the header, this returns the empty string.
// Both the header and its value are case-insensitive.
func (lumen *Lumen) GetHeader(header string) string {
	return lumen.Request.Header.Get(header)
}

// AddHeader adds the header, value pair to the response header. It appends to any existing values associated with key.
// Both the header and its value are case-insensitive.
func (lumen *Lumen) AddHeader(header string, value string) {
	lumen.Writer.Header().Add(header, value)
}

// Protocol returns the currently used protocol (either "http://" or "https://")
func (lumen *Lumen) Protocol() string {
	if lumen.Cfg != nil && lumen.Cfg.App.SSL {
		return "https://"
	}
	return "http://"
}

// CreateURL will return the url for the given endpoint. If you need to include the current protocol as well, use [Lumen.CreateProtocolURL] instead.
func (lumen *Lumen) CreateURL(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return fmt.Sprintf("%s%s", lumen.Request.Host, endpoint)
}

// CreateProtocolURL will return the full url for the given endpoint, including its protocol. If you don't want the current protocol to be included, use [Lumen.CreateURL] instead.
func (lumen *Lumen) CreateProtocolURL(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return fmt.Sprintf("%s%s%s", lumen.Protocol(), lumen.Request.Host, endpoint)
}

// RequiresLogin will return core.ErrUnauthenticated if there is no user logged in and nil otherwise.
func (lumen *Lumen) RequiresLogin() error {
	if lumen.User == nil {
		return core.ErrUnauthenticated
	}
	return nil
}

// Redirect will return a response that redirects the user to the specified url.
// If HTMX is available, this will redirect using HTMX.
func (lumen *Lumen) Redirect(url string) {
	if lumen.GetHeader("HX-Request") == "true" {
		lumen.AddHeader("HX-Redirect", url)
		lumen.StatusCode(http.StatusOK)
	} else {
		lumen.AddHeader("Location", url)
		lumen.StatusCode(http.StatusSeeOther)
	}
}

func (lumen *Lumen) rebuildContext() {
	session := Session(lumen.Context())
	ctx := buildSessionContext(lumen.Context(), session)
	lumen.Request = lumen.Request.WithContext(ctx)
}
