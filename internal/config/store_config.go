package config

type StoreConfig interface {
	GetDatabaseURL() string
	GetRedisAddr() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetDatabaseURL returns the postgres DSN. Empty means run on the in-memory
// repositories (development and tests).
func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

// GetRedisAddr returns the redis address for the verification token store.
// Empty means use the in-process store.
func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}
