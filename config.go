package accounts

import (
	"os"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// EnvConfig is the process-wide configuration, loaded once at startup.
// The signing key and connection string are never reloaded at runtime.
type EnvConfig struct {
	SigningKey      string
	TokenExpiration int
	Issuer          string
	Audience        []string
	DSN             string
	ListenAddr      string
}

var _ Config = (*EnvConfig)(nil)

// NewEnvConfig builds the configuration from ACCOUNTS_* environment
// variables. ACCOUNTS_SIGNING_KEY is required; everything else has a
// development-friendly default.
func NewEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{
		SigningKey:      os.Getenv("ACCOUNTS_SIGNING_KEY"),
		TokenExpiration: 24,
		Issuer:          envOr("ACCOUNTS_ISSUER", "go-accounts"),
		DSN:             envOr("ACCOUNTS_DSN", "file:accounts.db?cache=shared"),
		ListenAddr:      envOr("ACCOUNTS_LISTEN_ADDR", ":3000"),
	}

	if cfg.SigningKey == "" {
		return nil, goerrors.New("ACCOUNTS_SIGNING_KEY is required", goerrors.CategoryBadInput).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	if raw := os.Getenv("ACCOUNTS_TOKEN_EXPIRATION"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return nil, goerrors.New("ACCOUNTS_TOKEN_EXPIRATION must be a positive number of hours", goerrors.CategoryBadInput).
				WithTextCode("BAD_TOKEN_EXPIRATION")
		}
		cfg.TokenExpiration = hours
	}

	if raw := os.Getenv("ACCOUNTS_AUDIENCE"); raw != "" {
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.Audience = append(cfg.Audience, aud)
			}
		}
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string   { return c.SigningKey }
func (c *EnvConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *EnvConfig) GetIssuer() string       { return c.Issuer }
func (c *EnvConfig) GetAudience() []string   { return c.Audience }
func (c *EnvConfig) GetDSN() string          { return c.DSN }
func (c *EnvConfig) GetListenAddr() string   { return c.ListenAddr }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
