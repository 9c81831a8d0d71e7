package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is read once at startup and passed explicitly to the components.
type Config struct {
	JWTSecret       string
	DBDriver        string
	DBDSN           string
	AutoMigrate     bool
	AttachmentDir   string
	ListenAddr      string
	CookieSecure    bool
	BcryptCost      int
	ShutdownTimeout time.Duration
}

// loadConfig reads ./.env (without overriding variables already set) and the
// environment. A missing JWT_SECRET is an error.
func loadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		JWTSecret:       os.Getenv("JWT_SECRET"),
		DBDriver:        envOr("DB_DRIVER", "postgres"),
		DBDSN:           os.Getenv("DB_DSN"),
		AutoMigrate:     envBool("DB_AUTO_MIGRATE", true),
		AttachmentDir:   envOr("ATTACHMENT_DIR", "attachments"),
		ListenAddr:      envOr("LISTEN_ADDR", ":8081"),
		CookieSecure:    envBool("COOKIE_SECURE", true),
		BcryptCost:      bcrypt.DefaultCost,
		ShutdownTimeout: 15 * time.Second,
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is not defined or empty in the environment")
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "false", "0", "no":
		return false
	default:
		return true
	}
}
