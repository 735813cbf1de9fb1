package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/barida/identity-server/internal/config"
	"github.com/barida/identity-server/tenants"
	"github.com/barida/identity-server/users"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const seedPassword = "demo123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo workspace with one user per role",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(ctx context.Context) error {
	cfg := config.New()
	if cfg.GetDatabaseURL() == "" {
		return errors.New("DATABASE_URL must be set to seed; in-memory stores do not outlive the process")
	}

	repos, _, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	defer cleanup()

	if _, err := repos.Tenants.GetBySubdomain(ctx, "demo"); err == nil {
		log.Info().Msg("demo workspace already exists, nothing to do")
		return nil
	} else if !errors.Is(err, tenants.ErrNotFound) {
		return err
	}

	tenant := &tenants.Tenant{
		Name:        "Demo Workspace",
		Subdomain:   "demo",
		Description: "Sample workspace for trying out the identity server",
		Status:      tenants.StatusActive,
	}
	if err := repos.Tenants.Upsert(ctx, tenant); err != nil {
		return fmt.Errorf("create demo workspace: %w", err)
	}

	hash, err := users.HashPassword(seedPassword)
	if err != nil {
		return err
	}

	seeded := []struct {
		username string
		role     users.Role
	}{
		{"demo_manager", users.RoleSubAdmin},
		{"demo_operator", users.RoleOperator},
		{"demo_viewer", users.RoleViewer},
	}
	for _, s := range seeded {
		user := &users.User{
			Username:             s.username,
			PasswordHash:         hash,
			Role:                 s.role,
			TenantID:             &tenant.ID,
			VerificationState:    users.VerificationUnverified,
			RequiresVerification: true,
		}
		if err := repos.Users.Upsert(ctx, user); err != nil {
			return fmt.Errorf("create %s: %w", s.username, err)
		}
	}

	log.Info().
		Str("subdomain", tenant.Subdomain).
		Str("password", seedPassword).
		Msg("demo workspace seeded with demo_manager, demo_operator and demo_viewer")
	return nil
}
