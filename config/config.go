package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort                   = "8080"
	DefaultStoreDriver            = StoreDriverPostgres
	DefaultDBMaxConns             = 10
	DefaultAccessTokenExpiryMin   = 1440
	DefaultBcryptCost             = 12
	DefaultLoginMaxAttempts       = 5
	DefaultLoginWindowMinutes     = 15
	DefaultLockoutThreshold       = 5
	DefaultLockoutDurationMinutes = 15
	DefaultLoginHistoryLimit      = 20
	DefaultRecentLoginDays        = 7

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env         string
	Port        string
	StoreDriver string
	DBURL       string
	DBMaxConns  int

	AccessTokenSecret string
	AccessExpiryMin   int
	BcryptCost        int

	LoginMaxAttempts       int
	LoginWindowMinutes     int
	LockoutThreshold       int
	LockoutDurationMinutes int

	LoginHistoryLimit int
	RecentLoginDays   int
}

// Load reads config/.env.dev or config/.env.prod (selected by ENV) and lets
// process environment variables override any value found in the file.
func Load() *Config {
	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	src := readEnvFile(env)

	cfg := &Config{
		Env:         env,
		Port:        src.getEnv("PORT", DefaultPort),
		StoreDriver: src.getEnv("STORE_DRIVER", DefaultStoreDriver),
		DBMaxConns:  src.getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),

		AccessTokenSecret: src.mustGetEnv("ACCESS_TOKEN_SECRET"),
		AccessExpiryMin:   src.getEnvAsInt("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin),
		BcryptCost:        src.getEnvAsInt("BCRYPT_ROUNDS", DefaultBcryptCost),

		LoginMaxAttempts:       src.getEnvAsInt("LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts),
		LoginWindowMinutes:     src.getEnvAsInt("LOGIN_WINDOW_MINUTES", DefaultLoginWindowMinutes),
		LockoutThreshold:       src.getEnvAsInt("LOCKOUT_THRESHOLD", DefaultLockoutThreshold),
		LockoutDurationMinutes: src.getEnvAsInt("LOCKOUT_DURATION_MINUTES", DefaultLockoutDurationMinutes),

		LoginHistoryLimit: src.getEnvAsInt("LOGIN_HISTORY_LIMIT", DefaultLoginHistoryLimit),
		RecentLoginDays:   src.getEnvAsInt("RECENT_LOGIN_DAYS", DefaultRecentLoginDays),
	}

	if cfg.StoreDriver == StoreDriverPostgres {
		cfg.DBURL = src.mustGetEnv("DB_URL")
	} else {
		cfg.DBURL = src.getEnv("DB_URL", "")
	}

	return cfg
}

func readEnvFile(env string) envSource {
	name := ".env.dev"
	if env == "production" {
		name = ".env.prod"
	}

	values, err := godotenv.Read(filepath.Join("config", name))
	if err != nil {
		// Running without an env file is normal in containers.
		return envSource{}
	}
	return envSource(values)
}

// envSource holds values read from an env file. Process environment
// variables always take precedence over it.
type envSource map[string]string

func (s envSource) lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s[key]
}

func (s envSource) getEnv(key string, defaultVal string) string {
	if value := s.lookup(key); value != "" {
		return value
	}
	return defaultVal
}

func (s envSource) mustGetEnv(key string) string {
	if value := s.lookup(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func (s envSource) getEnvAsInt(key string, defaultVal int) int {
	valStr := s.lookup(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("warn: invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
