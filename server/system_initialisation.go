package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/barida/identity-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem ensures a global admin user exists so a fresh deployment
// is administrable. When no bootstrap password is configured a random one is
// generated and logged once.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	username := s.config.GetBootstrapAdminUsername()

	if _, err := s.repos.Users.GetByUsername(ctx, username); err == nil {
		return nil // Admin already present
	} else if !errors.Is(err, users.ErrNotFound) {
		return errors.Wrap(err, "[Server.InitialiseSystem] GetByUsername")
	}

	password := s.config.GetBootstrapAdminPassword()
	generated := false
	if password == "" {
		var err error
		password, err = generatePassword()
		if err != nil {
			return errors.Wrap(err, "[Server.InitialiseSystem] generatePassword")
		}
		generated = true
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[Server.InitialiseSystem] HashPassword")
	}

	admin := &users.User{
		Username:          username,
		PasswordHash:      hash,
		Role:              users.RoleAdmin,
		VerificationState: users.VerificationUnverified,
	}
	if err := s.repos.Users.Upsert(ctx, admin); err != nil {
		return errors.Wrap(err, "[Server.InitialiseSystem] Upsert")
	}

	if generated {
		log.Warn().
			Str("username", username).
			Str("password", password).
			Msg("bootstrap admin created with a generated password; change it after first login")
	} else {
		log.Info().Str("username", username).Msg("bootstrap admin created")
	}
	return nil
}

func generatePassword() (string, error) {
	bytes := make([]byte, 18)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
