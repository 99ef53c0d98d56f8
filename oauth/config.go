package oauth

import (
	"os"
	"strings"

	"github.com/lumenhq/lumen/config"
)

// ResolveConfig merges the caller configuration with environment defaults and the
// provider's well-known endpoints, field by field: a caller value wins over the
// environment, which wins over the provider constant. It returns a
// MissingCredential error when no client id can be resolved; in that case no
// request to the provider is ever made.
func ResolveConfig(
	provider Provider,
	cfg config.OauthProviderConfig,
) (config.OauthProviderConfig, error) {
	prefix := strings.ToUpper(provider.Name)
	if len(cfg.ID) == 0 {
		cfg.ID = os.Getenv(prefix + "_CLIENT_ID")
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = os.Getenv(prefix + "_CLIENT_SECRET")
	}
	if len(cfg.RedirectURL) == 0 {
		cfg.RedirectURL = os.Getenv(prefix + "_REDIRECT_URL")
	}
	if len(cfg.AuthURL) == 0 {
		cfg.AuthURL = provider.AuthURL
	}
	if len(cfg.TokenURL) == 0 {
		cfg.TokenURL = provider.TokenURL
	}
	if len(cfg.UserURL) == 0 {
		cfg.UserURL = provider.UserURL
	}

	if len(cfg.ID) == 0 {
		return cfg, newMissingCredential(provider.Name)
	}
	return cfg, nil
}
