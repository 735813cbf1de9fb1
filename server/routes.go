package server

// Route path constants.
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteAuthLogin            = "/auth/login"
	RouteAuthMe               = "/auth/me"
	RouteGenerateVerification = "/auth/generate-verification"
	RouteVerificationStatus   = "/auth/verification-status/{token}"
	RouteVerifyBiometric      = "/auth/verify-biometric"

	RouteAdminUsers             = "/admin/users"
	RouteAdminUser              = "/admin/users/{id}"
	RouteAdminUserRole          = "/admin/users/{id}/role"
	RouteAdminUserResetBio      = "/admin/users/{id}/reset-biometric"
	RouteAdminUserResetPassword = "/admin/users/{id}/reset-password"

	RouteAdminWorkspaces      = "/admin/workspaces"
	RouteAdminWorkspace       = "/admin/workspaces/{id}"
	RouteWorkspaceBySubdomain = "/workspaces/subdomain/{subdomain}"

	RouteHealthz = "/healthz"
)

func (s *Server) initRoutes() {
	// Session issuing and introspection
	s.RegisterRouteFunc("POST "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.Logging(), s.RequireSession()))

	// Verification handoff. Status and completion are called from the
	// identity origin without a session.
	s.RegisterRouteHandler("POST "+RouteGenerateVerification, ChainMiddleware(s.GenerateVerificationHandler(), s.Logging(), s.RequireSession()))
	s.RegisterRouteFunc("GET "+RouteVerificationStatus, s.VerificationStatusHandler())
	s.RegisterRouteFunc("POST "+RouteVerifyBiometric, s.VerifyBiometricHandler())

	// Administrative user management
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.ListUsersHandler(), s.Logging(), s.RequireSession()))
	s.RegisterRouteHandler("POST "+RouteAdminUsers, ChainMiddleware(s.CreateUserHandler(), s.Logging(), s.RequireSession()))
	s.RegisterRouteHandler("PUT "+RouteAdminUserRole, ChainMiddleware(s.UpdateUserRoleHandler(), s.Logging(), s.RequireSession()))
	s.RegisterRouteHandler("DELETE "+RouteAdminUser, ChainMiddleware(s.DeleteUserHandler(), s.Logging(), s.RequireSession()))
	s.RegisterRouteHandler("PUT "+RouteAdminUserResetBio, ChainMiddleware(s.ResetBiometricHandler(), s.Logging(), s.RequireSession()))
	s.RegisterRouteHandler("PUT "+RouteAdminUserResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.Logging(), s.RequireSession()))

	// Workspace management and the public subdomain lookup used by clients
	// to classify their own origin.
	s.RegisterRouteFunc("GET "+RouteWorkspaceBySubdomain, s.WorkspaceBySubdomainHandler())
	s.RegisterRouteHandler("GET "+RouteAdminWorkspaces, ChainMiddleware(s.ListWorkspacesHandler(), s.Logging(), s.RequireSession(), s.RequireAdmin()))
	s.RegisterRouteHandler("POST "+RouteAdminWorkspaces, ChainMiddleware(s.CreateWorkspaceHandler(), s.Logging(), s.RequireSession(), s.RequireAdmin()))
	s.RegisterRouteHandler("GET "+RouteAdminWorkspace, ChainMiddleware(s.GetWorkspaceHandler(), s.Logging(), s.RequireSession(), s.RequireAdmin()))
	s.RegisterRouteHandler("PUT "+RouteAdminWorkspace, ChainMiddleware(s.UpdateWorkspaceHandler(), s.Logging(), s.RequireSession(), s.RequireAdmin()))
	s.RegisterRouteHandler("DELETE "+RouteAdminWorkspace, ChainMiddleware(s.DeleteWorkspaceHandler(), s.Logging(), s.RequireSession(), s.RequireAdmin()))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}
