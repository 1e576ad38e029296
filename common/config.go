package common

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is built once at startup and handed to every constructor that needs it.
type Config struct {
	Port          string
	DatabaseURL   string
	SqliteDB      string
	PruneInterval time.Duration
	BcryptCost    int
	CORSOrigins   []string

	Tokens  TokenConfig
	Cookies CookieConfig
	Cache   CacheConfig
	SMTP    SMTPConfig
}

type TokenConfig struct {
	Secret          []byte
	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
}

type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

type CacheConfig struct {
	Dir string
	TTL time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// LoadConfig reads .env (if any) and the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("could not read .env:", err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []string
	duration := func(key string, def time.Duration) time.Duration {
		raw := getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	boolean := func(key string, def bool) bool {
		raw := getenv(key)
		if raw == "" {
			return def
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid boolean %q", key, raw))
			return def
		}
		return b
	}

	cfg := Config{
		Port:          get("PORT", "8080"),
		DatabaseURL:   get("DATABASE_URL", ""),
		SqliteDB:      get("SQLITE_DB", "pine.db"),
		PruneInterval: duration("PRUNE_INTERVAL", time.Hour),
		BcryptCost:    bcrypt.DefaultCost,
		Tokens: TokenConfig{
			Secret:          []byte(getenv("JWT_SECRET")),
			AccessLifetime:  duration("ACCESS_TOKEN_LIFETIME", 5*time.Minute),
			RefreshLifetime: duration("REFRESH_TOKEN_LIFETIME", 24*time.Hour),
		},
		Cookies: CookieConfig{
			Secure: boolean("COOKIE_SECURE", true),
			Domain: get("COOKIE_DOMAIN", ""),
		},
		Cache: CacheConfig{
			Dir: get("CACHE_DIR", "cache"),
			TTL: duration("CACHE_TTL", 300*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     get("SMTP_HOST", ""),
			Port:     get("SMTP_PORT", "587"),
			User:     get("SMTP_USER", ""),
			Password: getenv("SMTP_PASSWORD"),
			From:     get("SMTP_FROM", ""),
		},
	}

	if len(cfg.Tokens.Secret) == 0 {
		errs = append(errs, "JWT_SECRET: not set")
	}

	switch strings.ToLower(get("COOKIE_SAMESITE", "none")) {
	case "none":
		cfg.Cookies.SameSite = http.SameSiteNoneMode
	case "lax":
		cfg.Cookies.SameSite = http.SameSiteLaxMode
	case "strict":
		cfg.Cookies.SameSite = http.SameSiteStrictMode
	default:
		errs = append(errs, fmt.Sprintf("COOKIE_SAMESITE: unknown mode %q", getenv("COOKIE_SAMESITE")))
	}

	if raw := getenv("BCRYPT_COST"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			errs = append(errs, fmt.Sprintf("BCRYPT_COST: invalid cost %q", raw))
		} else {
			cfg.BcryptCost = cost
		}
	}

	for _, origin := range strings.Split(get("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}
