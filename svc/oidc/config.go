package oidc

import (
	"fmt"
	"strings"
	"time"
)

// IDTokenMode selects how ID tokens are signed.
type IDTokenMode string

const (
	// ModeAuto signs with the application's ES256 key when it has one and
	// falls back to HS256 with the application secret.
	ModeAuto IDTokenMode = "auto"
	// ModeHS256 always signs with the application secret.
	ModeHS256 IDTokenMode = "hs256"
)

func ParseIDTokenMode(s string) (IDTokenMode, error) {
	switch m := IDTokenMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeHS256:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("oidc: unknown id token mode %q", s)
	}
}

const (
	DefaultCodeTTL       = 2 * time.Minute
	DefaultSweepInterval = 2 * time.Minute
	DefaultIDTokenTTL    = 24 * time.Hour
)

// Config holds code and token lifetimes.
type Config struct {
	CodeTTL       time.Duration `env:"CODE_TTL" envDefault:"2m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"2m"`
	IDTokenTTL    time.Duration `env:"ID_TOKEN_TTL" envDefault:"24h"`
	IDTokenMode   string        `env:"ID_TOKEN_MODE" envDefault:"auto"`
}
