package server

import (
	"encoding/json"
	"net/http"

	"github.com/barida/identity-server/auth"
	"github.com/barida/identity-server/authz"
	"github.com/barida/identity-server/tenants"
	"github.com/barida/identity-server/verification"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps the domain error taxonomy onto HTTP. Authentication and
// token failures get deliberately vague messages; authorization failures
// carry their reason since the caller is already authenticated.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErrorMessage(w, http.StatusUnauthorized, "Invalid credentials")

	case errors.Is(err, auth.ErrWorkspaceAccessDenied):
		writeErrorMessage(w, http.StatusForbidden, "You do not have access to this workspace")
	case errors.Is(err, auth.ErrTenantInactive):
		writeErrorMessage(w, http.StatusForbidden, "This workspace is currently unavailable")
	case errors.Is(err, auth.ErrTenantNotFound), errors.Is(err, tenants.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "Workspace not found")
	case errors.Is(err, auth.ErrUserNotFound):
		writeErrorMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrTenantRequired),
		errors.Is(err, verification.ErrAlreadyVerified):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, authz.ErrQuotaExceeded):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, authz.ErrRoleHierarchy),
		errors.Is(err, authz.ErrTenantBoundary),
		errors.Is(err, authz.ErrRoleGrantDenied),
		errors.Is(err, authz.ErrSelfAction),
		errors.Is(err, authz.ErrCallerUnqualified):
		writeErrorMessage(w, http.StatusForbidden, err.Error())

	// Unknown, expired and consumed tokens are indistinguishable to the
	// unauthenticated identity origin.
	case errors.Is(err, verification.ErrTokenNotFound),
		errors.Is(err, verification.ErrTokenExpired),
		errors.Is(err, verification.ErrTokenAlreadyUsed):
		writeErrorMessage(w, http.StatusNotFound, "Token not found or already used")
	case errors.Is(err, verification.ErrPayloadRequired):
		writeErrorMessage(w, http.StatusBadRequest, "Token and photo data required")

	default:
		log.Error().Err(err).Msg("internal error")
		writeErrorMessage(w, http.StatusInternalServerError, "Internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(dst)
}
