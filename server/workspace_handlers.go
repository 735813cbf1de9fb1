package server

import (
	"net/http"
	"strings"

	"github.com/barida/identity-server/tenants"
	"github.com/pkg/errors"
)

type workspaceRequest struct {
	Name        string `json:"name"`
	Subdomain   string `json:"subdomain"`
	Description string `json:"description,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
}

// WorkspaceBySubdomainHandler is the public lookup clients use to classify
// their own origin. Only active workspaces are returned; everything else is
// a uniform not-found so the endpoint leaks nothing about which subdomains
// exist.
func (s *Server) WorkspaceBySubdomainHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subdomain := strings.ToLower(r.PathValue("subdomain"))
		tenant, err := s.repos.Tenants.GetBySubdomain(r.Context(), subdomain)
		if err != nil || !tenant.Active() {
			writeErrorMessage(w, http.StatusNotFound, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

func (s *Server) ListWorkspacesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Tenants.List(r.Context(), 0, 0)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetWorkspaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := s.repos.Tenants.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

func (s *Server) CreateWorkspaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req workspaceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		subdomain := strings.ToLower(req.Subdomain)
		if req.Name == "" || !tenants.ValidSubdomain(subdomain) {
			writeErrorMessage(w, http.StatusBadRequest, "Name and a lowercase alphanumeric subdomain are required")
			return
		}
		if _, err := s.repos.Tenants.GetBySubdomain(r.Context(), subdomain); err == nil {
			writeErrorMessage(w, http.StatusBadRequest, "Subdomain already in use")
			return
		} else if !errors.Is(err, tenants.ErrNotFound) {
			writeError(w, err)
			return
		}

		tenant := &tenants.Tenant{
			Name:        req.Name,
			Subdomain:   subdomain,
			Description: req.Description,
			Company:     req.Company,
			Location:    req.Location,
			Status:      tenants.StatusActive,
			CreatedBy:   sessionClaims(r).Subject,
		}
		if err := s.repos.Tenants.Upsert(r.Context(), tenant); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tenant)
	}
}

func (s *Server) UpdateWorkspaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := s.repos.Tenants.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}

		var req workspaceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		// The subdomain is the workspace's identity and stays immutable.
		if req.Name != "" {
			tenant.Name = req.Name
		}
		if req.Description != "" {
			tenant.Description = req.Description
		}
		if req.Company != "" {
			tenant.Company = req.Company
		}
		if req.Location != "" {
			tenant.Location = req.Location
		}
		if req.Status != "" {
			switch tenants.Status(req.Status) {
			case tenants.StatusActive, tenants.StatusInactive, tenants.StatusMaintenance:
				tenant.Status = tenants.Status(req.Status)
			default:
				writeErrorMessage(w, http.StatusBadRequest, "Invalid status")
				return
			}
		}

		if err := s.repos.Tenants.Upsert(r.Context(), tenant); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

func (s *Server) DeleteWorkspaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repos.Tenants.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Workspace deleted"})
	}
}
