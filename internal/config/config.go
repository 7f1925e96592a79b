package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds the runtime configuration of the registry.  Each field
// maps to one environment variable; required variables are enforced by
// must() so a misconfigured deployment fails at startup, not on the
// first request.
type Config struct {
	Env            string // APP_ENV (dev/test/prod)
	Port           string // APP_PORT the HTTP server binds to
	DBUser         string // DB_USER
	DBPass         string // DB_PASS (empty allowed)
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	JWTSecret      string // JWT_SECRET used to sign access tokens
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST
	RabbitURL      string // RABBITMQ_URL, empty disables the interment consumer
	AdminEmail     string // ADMIN_EMAIL, seeds the first admin account
	AdminPassword  string // ADMIN_PASSWORD, required when ADMIN_EMAIL is set
}

// Load reads the configuration from the environment.  Missing required
// variables are fatal.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return cfg
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must() plus integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
