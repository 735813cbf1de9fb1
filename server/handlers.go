package server

import (
	"net/http"

	"github.com/barida/identity-server/auth"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Subdomain string `json:"subdomain,omitempty"`
}

type verifyBiometricRequest struct {
	Token     string `json:"token"`
	PhotoData string `json:"photoData"`
}

type verifyBiometricResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

// LoginHandler authenticates credentials and issues a session credential.
// When the login arrived on the wrong origin for the user's workspace the
// response carries a one-time redirect instead of failing.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeErrorMessage(w, http.StatusBadRequest, "Username and password required")
			return
		}

		result, err := s.auth.Login(r.Context(), auth.Credentials{
			Username:  req.Username,
			Password:  req.Password,
			Subdomain: req.Subdomain,
			Host:      r.Host,
		})
		if err != nil {
			log.Debug().Err(err).Str("username", req.Username).Msg("login rejected")
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// MeHandler returns the current user's summary.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := sessionClaims(r)
		summary, err := s.auth.Me(r.Context(), claims.Subject)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// GenerateVerificationHandler issues a verification token for the session
// user and returns the URL the identity origin serves it under. Only the
// user themself can request one; the session is the proof.
func (s *Server) GenerateVerificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := sessionClaims(r)
		issued, err := s.verification.Issue(r.Context(), claims.Subject)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, issued)
	}
}

// VerificationStatusHandler is polled from the identity origin without a
// session. It reveals the pending flag and the username, nothing else.
func (s *Server) VerificationStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := s.verification.CheckStatus(r.Context(), r.PathValue("token"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// VerifyBiometricHandler is the completion callback from the identity
// origin: it consumes the token and stores the capture.
func (s *Server) VerifyBiometricHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyBiometricRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" || req.PhotoData == "" {
			writeErrorMessage(w, http.StatusBadRequest, "Token and photo data required")
			return
		}

		username, err := s.verification.Complete(r.Context(), req.Token, req.PhotoData)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Info().Str("username", username).Msg("biometric verification completed")
		writeJSON(w, http.StatusOK, verifyBiometricResponse{Success: true, Username: username})
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
