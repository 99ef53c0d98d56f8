package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/login"
)

// NewLoginService creates a login.Service over the configured providers.
// Without explicit descriptors, the built-in GitHub and Twitch providers are used.
func NewLoginService(
	providers map[string]config.OauthProviderConfig,
	descriptors ...Provider,
) *LoginService {
	if len(descriptors) == 0 {
		descriptors = []Provider{Github(), Twitch()}
	}
	registry := make(map[string]Provider, len(descriptors))
	for _, descriptor := range descriptors {
		registry[descriptor.Name] = descriptor
	}
	return &LoginService{providers, registry}
}

// OAuth2 implementation of the core LoginService interface.
type LoginService struct {
	providers map[string]config.OauthProviderConfig
	registry  map[string]Provider
}

// Force struct to implement the core interface
var _ login.Service = &LoginService{}

func (s *LoginService) resolve(provider string) (Provider, config.OauthProviderConfig, error) {
	descriptor, exists := s.registry[provider]
	if !exists {
		return Provider{}, config.OauthProviderConfig{}, fmt.Errorf("unknown provider: %s", provider)
	}
	cfg, err := ResolveConfig(descriptor, s.providers[provider])
	if err != nil {
		return Provider{}, config.OauthProviderConfig{}, err
	}
	return descriptor, cfg, nil
}

func (s *LoginService) GetLoginRedirectURL(provider string, callbackURL string) (string, error) {
	descriptor, cfg, err := s.resolve(provider)
	if err != nil {
		return "", err
	}
	if len(cfg.RedirectURL) > 0 {
		callbackURL = cfg.RedirectURL
	}
	return AuthorizeURL(descriptor, cfg, callbackURL), nil
}

func (s *LoginService) LoginCallback(
	ctx context.Context,
	provider string,
	code string,
	redirectURL string,
) (*login.UserData, *login.TokenData, error) {
	descriptor, cfg, err := s.resolve(provider)
	if err != nil {
		return nil, nil, err
	}

	if len(code) == 0 {
		return nil, nil, errors.New("expected to receive a code")
	}

	payload := exchangeToken(ctx, cfg, code, redirectURL)
	if errValue, ok := payload["error"]; ok && errValue != nil {
		return nil, nil, newTokenExchangeFailed(provider, payload)
	}

	record, profileErr := fetchProfile(ctx, descriptor, cfg, payload)
	if profileErr != nil {
		return nil, nil, profileErr
	}

	userData, err := descriptor.NormalizeUser(record)
	if err != nil {
		return nil, nil, newProfileFetchFailed(provider, record)
	}

	return userData, normalizeToken(payload), nil
}
