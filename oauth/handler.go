package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/render"
	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/login"
	"github.com/lumenhq/lumen/server"
)

type (
	// SuccessHandler finishes a successful login, typically by calling
	// [server.Lumen.LoginUser] and redirecting to the application's home route.
	SuccessHandler func(lumen *server.Lumen, user *login.UserData, token *login.TokenData) error
	// ErrorHandler handles a failed login, e.g. by redirecting to a login-failure
	// page. When no ErrorHandler is supplied, the structured [Error] propagates to
	// the server's error handler instead.
	ErrorHandler func(lumen *server.Lumen, loginErr *Error) error
)

// Handlers are the caller-supplied continuations of a login flow.
// OnSuccess is required, OnError is optional.
type Handlers struct {
	OnSuccess SuccessHandler
	OnError   ErrorHandler
}

// LoginHandler returns a route handler implementing the OAuth2 authorization-code
// flow for the given provider. A request without a "code" query parameter is
// redirected to the provider's consent page; the callback request (carrying a
// code) is exchanged for an access token, the user profile is fetched and
// normalized, and exactly one of the continuations is invoked.
func LoginHandler[state any](
	provider Provider,
	cfg config.OauthProviderConfig,
	handlers Handlers,
) func(lumen *server.Lumen, state state) error {
	return func(lumen *server.Lumen, _ state) error {
		resolved, err := ResolveConfig(provider, cfg)
		if err != nil {
			var loginErr *Error
			if !errors.As(err, &loginErr) {
				return err
			}
			return dispatchError(lumen, handlers, loginErr)
		}

		redirectURI := resolved.RedirectURL
		if len(redirectURI) == 0 {
			redirectURI = lumen.CreateProtocolURL(lumen.Path())
		}

		code := lumen.GetQuery("code")
		if len(code) == 0 {
			lumen.Redirect(AuthorizeURL(provider, resolved, redirectURI))
			return nil
		}

		ctx := lumen.Context()
		payload := exchangeToken(ctx, resolved, code, redirectURI)
		if errValue, ok := payload["error"]; ok && errValue != nil {
			return dispatchError(lumen, handlers, newTokenExchangeFailed(provider.Name, payload))
		}
		lumen.Debug("Token request complete", "provider", provider.Name, "response", payload)

		record, profileErr := fetchProfile(ctx, provider, resolved, payload)
		if profileErr != nil {
			return dispatchError(lumen, handlers, profileErr)
		}

		user, err := provider.NormalizeUser(record)
		if err != nil {
			lumen.Error("Cannot normalize provider user data", "provider", provider.Name, "error", err)
			return dispatchError(lumen, handlers, newProfileFetchFailed(provider.Name, record))
		}
		lumen.Debug("User data retrieved", "provider", provider.Name, "user_id", user.ID)

		return handlers.OnSuccess(lumen, user, normalizeToken(payload))
	}
}

func dispatchError(lumen *server.Lumen, handlers Handlers, loginErr *Error) error {
	if handlers.OnError != nil {
		return handlers.OnError(lumen, loginErr)
	}
	return loginErr
}

// AuthorizeURL builds the provider consent url the user is redirected to in the
// first leg of the flow. Extra authorization params from the configuration are
// merged last and can override the standard parameters.
func AuthorizeURL(provider Provider, cfg config.OauthProviderConfig, redirectURI string) string {
	data := url.Values{}
	data.Set("response_type", "code")
	data.Set("client_id", cfg.ID)
	data.Set("redirect_uri", redirectURI)
	data.Set("scope", strings.Join(provider.scope(cfg), " "))
	for param, value := range cfg.ExtraAuthParams {
		data.Set(param, value)
	}
	return fmt.Sprintf("%s?%s", cfg.AuthURL, data.Encode())
}

// exchangeToken trades the authorization code for an access token. Transport or
// decoding failures are folded into an error-shaped payload so the caller can
// treat every failure as a uniform {error} response.
func exchangeToken(
	ctx context.Context,
	cfg config.OauthProviderConfig,
	code string,
	redirectURI string,
) map[string]any {
	reqData := url.Values{}
	reqData.Set("grant_type", "authorization_code")
	reqData.Set("redirect_uri", stripQueryAndFragment(redirectURI))
	reqData.Set("client_id", cfg.ID)
	reqData.Set("client_secret", cfg.Secret)
	reqData.Set("code", code)

	tokenReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		cfg.TokenURL,
		strings.NewReader(reqData.Encode()),
	)
	if err != nil {
		return errorPayload(fmt.Errorf("failed to create token request: %w", err))
	}
	tokenReq.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	tokenReq.Header.Add("Accept", "application/json")

	tokenResp, err := http.DefaultClient.Do(tokenReq)
	if err != nil {
		return errorPayload(fmt.Errorf("failed to retrieve token data: %w", err))
	}
	defer tokenResp.Body.Close()

	payload := make(map[string]any)
	if err = render.DecodeJSON(tokenResp.Body, &payload); err != nil {
		return errorPayload(fmt.Errorf("cannot decode token response: %w", err))
	}
	return payload
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"error":             "request_failed",
		"error_description": err.Error(),
	}
}

// stripQueryAndFragment reduces the redirect uri to its path component, as the
// token endpoints expect the plain callback url without query or fragment.
func stripQueryAndFragment(redirectURI string) string {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}

// fetchProfile retrieves the user record from the provider's user endpoint using
// the exchanged access token. The raw token payload travels along in the returned
// error for diagnostics.
func fetchProfile(
	ctx context.Context,
	provider Provider,
	cfg config.OauthProviderConfig,
	tokenPayload map[string]any,
) (map[string]any, *Error) {
	accessToken, _ := tokenPayload["access_token"].(string)

	userReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.UserURL, nil)
	if err != nil {
		slog.Error("Failed to create user data request", "provider", provider.Name, "error", err)
		return nil, newProfileFetchFailed(provider.Name, tokenPayload)
	}
	userReq.Header.Set("User-Agent", "Lumen Login")
	userReq.Header.Set("Accept", "application/json")
	userReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	if provider.ProfileHeaders != nil {
		for header, values := range provider.ProfileHeaders(cfg) {
			for _, value := range values {
				userReq.Header.Set(header, value)
			}
		}
	}

	userResp, err := http.DefaultClient.Do(userReq)
	if err != nil {
		slog.Error("Failed to retrieve user data", "provider", provider.Name, "error", err)
		return nil, newProfileFetchFailed(provider.Name, tokenPayload)
	}
	defer userResp.Body.Close()

	respData := make(map[string]any)
	if err = render.DecodeJSON(userResp.Body, &respData); err != nil {
		slog.Error("Cannot parse user response", "provider", provider.Name, "error", err)
		return nil, newProfileFetchFailed(provider.Name, tokenPayload)
	}
	slog.Debug("Received provider user data", "provider", provider.Name, "data", respData)

	record, ok := provider.UserRecord(respData)
	if !ok {
		return nil, newProfileFetchFailed(provider.Name, tokenPayload)
	}
	return record, nil
}
