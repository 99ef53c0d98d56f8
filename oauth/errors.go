package oauth

import (
	"fmt"
	"net/http"
)

const (
	// CodeMissingCredential means the handler was configured without a client id.
	CodeMissingCredential = "missing_credential"
	// CodeTokenExchangeFailed means the provider rejected the authorization code.
	CodeTokenExchangeFailed = "token_exchange_failed"
	// CodeProfileFetchFailed means the provider returned no usable user record.
	CodeProfileFetchFailed = "profile_fetch_failed"
)

// Error is a structured login error. Every failed login ends in exactly one of
// these; the Payload carries the raw provider response for diagnostics where one
// was available.
type Error struct {
	Code     string
	Provider string
	Status   int
	Payload  map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("oauth login with provider %q failed: %s", e.Provider, e.Code)
}

// HTTPStatus implements server.StatusCoder.
func (e *Error) HTTPStatus() int {
	return e.Status
}

func newMissingCredential(provider string) *Error {
	return &Error{
		Code:     CodeMissingCredential,
		Provider: provider,
		Status:   http.StatusInternalServerError,
	}
}

func newTokenExchangeFailed(provider string, payload map[string]any) *Error {
	return &Error{
		Code:     CodeTokenExchangeFailed,
		Provider: provider,
		Status:   http.StatusUnauthorized,
		Payload:  payload,
	}
}

func newProfileFetchFailed(provider string, payload map[string]any) *Error {
	return &Error{
		Code:     CodeProfileFetchFailed,
		Provider: provider,
		Status:   http.StatusInternalServerError,
		Payload:  payload,
	}
}
