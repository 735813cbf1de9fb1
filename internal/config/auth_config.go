package config

import (
	"time"
)

type AuthConfig interface {
	GetSessionSecret() string
	GetSessionExpiry() time.Duration
	GetVerificationTokenTTL() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", "dev-only-insecure-secret")
}

func (Auth) GetSessionExpiry() time.Duration {
	if d, err := time.ParseDuration(GetEnv("SESSION_EXPIRY", "")); err == nil && d > 0 {
		return d
	}
	return 12 * time.Hour
}

func (Auth) GetVerificationTokenTTL() time.Duration {
	if d, err := time.ParseDuration(GetEnv("VERIFICATION_TOKEN_TTL", "")); err == nil && d > 0 {
		return d
	}
	return 10 * time.Minute
}
