package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port        string
	StoreDriver string // sqlite | redis | memory
	DBDSN       string
	RedisAddr   string
	APIBaseURL  string // empty means local-only mode
	APITimeout  time.Duration
	LogFile     string

	TokenSecret string
	SessionTTL  time.Duration
	BcryptCost  int

	AdminEmail    string
	AdminPassword string
}

// Load reads the environment, optionally seeded from a .env file in the
// working directory (or ENV_FILE). Real environment variables win.
func Load() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[warn] could not load %s: %v", envFile, err)
		}
	} else {
		log.Printf("[config] loaded %s", envFile)
	}

	cfg := Config{
		Port:          env("PORT", "8081"),
		StoreDriver:   env("STORE_DRIVER", "sqlite"),
		DBDSN:         env("DB_DSN", "quickthrift.db"), // sqlite file in project root
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		APIBaseURL:    os.Getenv("API_BASE_URL"),
		APITimeout:    envDuration("API_TIMEOUT", 5*time.Second),
		LogFile:       env("LOG_FILE", "./quickthrift.log"),
		TokenSecret:   env("TOKEN_SECRET", "quickthrift-local-dev-secret"),
		SessionTTL:    envDuration("SESSION_TTL", 7*24*time.Hour),
		BcryptCost:    envInt("BCRYPT_COST", bcrypt.DefaultCost),
		AdminEmail:    env("ADMIN_EMAIL", "admin@quickthrift.com"),
		AdminPassword: env("ADMIN_PASSWORD", "admin123"),
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	log.Printf("[config] PORT=%s STORE_DRIVER=%s DB_DSN=%s API_BASE_URL=%q API_TIMEOUT=%s LOG_FILE=%s",
		cfg.Port, cfg.StoreDriver, cfg.DBDSN, cfg.APIBaseURL, cfg.APITimeout, cfg.LogFile)
	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[warn] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[warn] bad %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
