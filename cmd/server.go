package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barida/identity-server/auth"
	"github.com/barida/identity-server/internal/config"
	"github.com/barida/identity-server/internal/db"
	"github.com/barida/identity-server/internal/store/postgres"
	"github.com/barida/identity-server/server"
	"github.com/barida/identity-server/tenants/repofake"
	userfake "github.com/barida/identity-server/users/repofake"
	"github.com/barida/identity-server/verification"
	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the identity HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(ctx context.Context) error {
	cfg := config.New()
	displayAppName(cfg.GetAppName())

	repos, tokenStore, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	defer cleanup()

	handler, err := server.New(cfg, repos, tokenStore)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildStores wires the persistence layer from the environment. Repositories
// run on Postgres when DATABASE_URL is set, otherwise on the in-memory fakes.
// Verification tokens prefer redis, then Postgres, then process memory.
func buildStores(ctx context.Context, cfg config.Config) (auth.Repos, verification.TokenStore, func(), error) {
	repos := auth.Repos{
		Users:   userfake.NewFakeUserRepo(),
		Tenants: repofake.NewFakeTenantRepo(),
	}
	cleanup := func() {}

	var database *sql.DB
	if dsn := cfg.GetDatabaseURL(); dsn != "" {
		var err error
		database, err = db.Open(ctx, dsn)
		if err != nil {
			return auth.Repos{}, nil, nil, err
		}
		repos = auth.Repos{
			Users:   postgres.NewUserRepo(database),
			Tenants: postgres.NewTenantRepo(database),
		}
		cleanup = func() { _ = database.Close() }
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
	}

	tokenStore, err := buildTokenStore(ctx, cfg, database)
	if err != nil {
		cleanup()
		return auth.Repos{}, nil, nil, err
	}
	return repos, tokenStore, cleanup, nil
}

func buildTokenStore(ctx context.Context, cfg config.Config, database *sql.DB) (verification.TokenStore, error) {
	if addr := cfg.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return verification.NewRedisTokenStore(client), nil
	}
	if database != nil {
		return postgres.NewTokenStore(database), nil
	}
	log.Warn().Msg("REDIS_ADDR not set, using in-memory verification tokens")
	return verification.NewInMemoryTokenStore(), nil
}

func displayAppName(appName string) {
	myFigure := figure.NewFigure(appName, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
