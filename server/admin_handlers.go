package server

import (
	"net/http"

	"github.com/barida/identity-server/auth"
	"github.com/barida/identity-server/authz"
	"github.com/barida/identity-server/users"
	"github.com/rs/zerolog/log"
)

type createUserRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// callerPrincipal builds the authorizer input from the verified session.
func callerPrincipal(r *http.Request) authz.Principal {
	claims := sessionClaims(r)
	return authz.Principal{
		ID:       claims.Subject,
		Role:     users.Role(claims.Role),
		TenantID: claims.TenantID,
	}
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.auth.ListUsers(r.Context(), callerPrincipal(r), 0, 0)
		if err != nil {
			writeError(w, err)
			return
		}
		summaries := make([]users.Summary, 0, len(list))
		for _, u := range list {
			summaries = append(summaries, u.Summary())
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeErrorMessage(w, http.StatusBadRequest, "Username and password required")
			return
		}
		role, err := users.ParseRole(req.Role)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		caller := callerPrincipal(r)
		created, err := s.auth.CreateUser(r.Context(), caller, auth.NewUser{
			Username: req.Username,
			Password: req.Password,
			Role:     role,
			TenantID: req.TenantID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		log.Info().Str("username", created.Username).Str("role", string(created.Role)).Msg("user created")
		writeJSON(w, http.StatusCreated, created.Summary())
	}
}

func (s *Server) UpdateUserRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRoleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		role, err := users.ParseRole(req.Role)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		updated, err := s.auth.UpdateRole(r.Context(), callerPrincipal(r), r.PathValue("id"), role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated.Summary())
	}
}

func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.DeleteUser(r.Context(), callerPrincipal(r), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
	}
}

// ResetBiometricHandler forces re-verification for the target user, subject
// to the same hierarchy and workspace rules as role changes.
func (s *Server) ResetBiometricHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := r.PathValue("id")
		if err := s.verification.Reset(r.Context(), callerPrincipal(r), targetID); err != nil {
			writeError(w, err)
			return
		}
		log.Info().Str("user_id", targetID).Msg("biometric verification reset")
		writeJSON(w, http.StatusOK, map[string]string{"message": "Verification reset"})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Password == "" {
			writeErrorMessage(w, http.StatusBadRequest, "Password required")
			return
		}
		if err := s.auth.ResetPassword(r.Context(), callerPrincipal(r), r.PathValue("id"), req.Password); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset"})
	}
}
