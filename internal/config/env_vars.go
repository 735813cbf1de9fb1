package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	rootDomainVar    = "ROOT_DOMAIN"
	identityHostVar  = "IDENTITY_ORIGIN"
	adminUserVar     = "BOOTSTRAP_ADMIN_USERNAME"
	adminPasswordVar = "BOOTSTRAP_ADMIN_PASSWORD"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Barida Identity")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetRootDomain returns the apex domain that workspace subdomains hang off
// (e.g. "barida.xyz" for "acme.barida.xyz").
func (EnvVars) GetRootDomain() string {
	return GetEnv(rootDomainVar, "barida.xyz")
}

// GetIdentityOrigin returns the base URL of the identity handoff origin, where
// biometric capture happens. Verification URLs are built against it.
func (e EnvVars) GetIdentityOrigin() string {
	return GetEnv(identityHostVar, fmt.Sprintf("https://identity.%s", e.GetRootDomain()))
}

func (EnvVars) GetBootstrapAdminUsername() string {
	return GetEnv(adminUserVar, "admin")
}

func (EnvVars) GetBootstrapAdminPassword() string {
	return GetEnv(adminPasswordVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
