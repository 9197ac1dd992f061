package auth

import "time"

// Config holds the authentication policy loaded from the environment.
type Config struct {
	RequireSessionForLink bool          `env:"AUTH_REQUIRE_SESSION_FOR_LINK" envDefault:"true"`
	MatchProviderUserID   bool          `env:"AUTH_MATCH_PROVIDER_USER_ID" envDefault:"false"`
	BcryptCost            int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	SessionTTL            time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// Options translates the config into service options.
func (c Config) Options() []Option {
	return []Option{
		WithRequireSessionForLink(c.RequireSessionForLink),
		WithMatchProviderUserID(c.MatchProviderUserID),
		WithBcryptCost(c.BcryptCost),
	}
}
