package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // loads a local .env file during development
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets are mandatory: there is no fallback
// signing secret, and a missing value aborts startup rather than silently
// degrading to an insecure default.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	DBMaxOpenConns   int    // connection pool: max open connections
	DBMaxIdleConns   int    // connection pool: max idle connections
	DBConnMaxLifeMin int    // connection pool: connection lifetime in minutes
	DBPingTimeoutSec int    // startup ping timeout in seconds
	JWTSecret        string // secret used to sign bearer tokens
	SessionSecret    string // secret used to sign the session cookie
	AccessTTLMin     int    // bearer token time-to-live in minutes
	SessionTTLMin    int    // server-side session time-to-live in minutes
	ResetTokenTTLMin int    // password reset token time-to-live in minutes
	BcryptCost       int    // bcrypt cost for password hashing
}

// Load reads configuration values from the environment and returns a Config.
// A .env file in the working directory is merged in first when present, so
// local development does not need exported variables.  Required variables are
// enforced by must() and missing values cause the program to exit with a
// fatal log message.
func Load() Config {
	_ = godotenv.Load() // absent .env is fine; real deployments export vars

	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty password allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		DBMaxOpenConns:   intOr("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:   intOr("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifeMin: intOr("DB_CONN_MAX_LIFETIME_MIN", 30),
		DBPingTimeoutSec: intOr("DB_PING_TIMEOUT_SEC", 5),
		JWTSecret:        must("JWT_SECRET"),
		SessionSecret:    must("SESSION_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		SessionTTLMin:    intOr("SESSION_TTL_MIN", 1440),
		ResetTokenTTLMin: intOr("RESET_TOKEN_TTL_MIN", 30),
		BcryptCost:       mustInt("BCRYPT_COST"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr reads an optional integer variable, falling back to def when the
// variable is unset or malformed.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
