// Package server exposes the identity subsystem over HTTP: login, session
// introspection, the biometric verification handoff and the administrative
// user/workspace surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/barida/identity-server/auth"
	"github.com/barida/identity-server/internal/config"
	"github.com/barida/identity-server/tenants"
	"github.com/barida/identity-server/token"
	"github.com/barida/identity-server/verification"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env          string // Environment (e.g. "DEV", "production")
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	repos        auth.Repos
	resolver     *tenants.Resolver
	sessions     *token.Manager
	auth         *auth.Service
	verification *verification.Service
}

func New(cfg config.Config, repos auth.Repos, tokenStore verification.TokenStore) (*Server, error) {
	resolver := tenants.NewResolver(cfg.GetRootDomain(), repos.Tenants)

	sessions, err := token.NewManager(cfg.GetSessionSecret(), token.WithExpiry(cfg.GetSessionExpiry()))
	if err != nil {
		return nil, fmt.Errorf("[server.New] session manager: %w", err)
	}

	authService, err := auth.NewService(repos, resolver, sessions, cfg.GetRootDomain())
	if err != nil {
		return nil, fmt.Errorf("[server.New] auth service: %w", err)
	}

	verificationService, err := verification.NewService(
		repos.Users,
		tokenStore,
		cfg.GetIdentityOrigin(),
		verification.WithTokenTTL(cfg.GetVerificationTokenTTL()),
	)
	if err != nil {
		return nil, fmt.Errorf("[server.New] verification service: %w", err)
	}

	s := &Server{
		env:          cfg.GetEnv(),
		mux:          http.NewServeMux(),
		config:       cfg,
		repos:        repos,
		resolver:     resolver,
		sessions:     sessions,
		auth:         authService,
		verification: verificationService,
	}

	// Bootstrap: ensure a global admin exists before serving.
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[server.New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}
