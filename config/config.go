package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the application configuration. The env tag names the variable
// each field is read from and is used in validation messages.
type Config struct {
	Port string `env:"PORT" validate:"required,numeric"`

	SSOURL        string        `env:"SSO_URL" validate:"required,url"`
	SSOTeam       string        `env:"SSO_TEAM" validate:"required"`
	SSODiscovery  bool          `env:"SSO_DISCOVERY"`
	VerifyTimeout time.Duration `env:"VERIFY_TIMEOUT" validate:"gt=0"`

	SessionTTL     time.Duration `env:"SESSION_TTL" validate:"gt=0"`
	FlowTTL        time.Duration `env:"FLOW_TTL" validate:"gt=0"`
	FlowMaxEntries int           `env:"FLOW_MAX_ENTRIES" validate:"gte=1"`

	CookieName   string `env:"SESSION_COOKIE_NAME" validate:"required"`
	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool   `env:"COOKIE_SECURE"`
	CookieSecret string `env:"COOKIE_SECRET" validate:"required"`
	// CookieSecretGenerated is set when COOKIE_SECRET was absent and a
	// per-process secret was drawn instead.
	CookieSecretGenerated bool `env:"-"`

	PublicURL string `env:"PUBLIC_URL" validate:"omitempty,url"`

	StoreBackend string `env:"STORE_BACKEND" validate:"oneof=memory redis"`
	RedisURL     string `env:"REDIS_URL" validate:"required_if=StoreBackend redis"`

	AuthSharedSecret string `env:"AUTH_SHARED_SECRET"`

	BackendTokenSecret   string        `env:"BACKEND_TOKEN_SECRET" validate:"omitempty,min=32"`
	BackendTokenIssuer   string        `env:"BACKEND_TOKEN_ISSUER" validate:"required"`
	BackendTokenAudience string        `env:"BACKEND_TOKEN_AUDIENCE" validate:"required"`
	BackendTokenTTL      time.Duration `env:"BACKEND_TOKEN_TTL" validate:"gt=0"`

	LogLevel string `env:"LOG_LEVEL"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		SSOURL:        strings.TrimRight(getEnv("SSO_URL", "https://login.ubuntu.com"), "/"),
		SSOTeam:       getEnv("SSO_TEAM", "canonical-webmonkeys"),
		SSODiscovery:  p.boolean("SSO_DISCOVERY", false),
		VerifyTimeout: p.duration("VERIFY_TIMEOUT", 5*time.Second),

		SessionTTL:     p.duration("SESSION_TTL", 24*time.Hour),
		FlowTTL:        p.duration("FLOW_TTL", 10*time.Minute),
		FlowMaxEntries: p.integer("FLOW_MAX_ENTRIES", 10000),

		CookieName:   getEnv("SESSION_COOKIE_NAME", "sso_session"),
		CookieDomain: getEnv("COOKIE_DOMAIN", ".myapp.local"),
		CookieSecure: p.boolean("COOKIE_SECURE", true),
		CookieSecret: getEnv("COOKIE_SECRET", ""),

		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		RedisURL:     getEnv("REDIS_URL", ""),

		AuthSharedSecret: getEnv("AUTH_SHARED_SECRET", ""),

		BackendTokenSecret:   getEnv("BACKEND_TOKEN_SECRET", ""),
		BackendTokenIssuer:   getEnv("BACKEND_TOKEN_ISSUER", "sso-hub"),
		BackendTokenAudience: getEnv("BACKEND_TOKEN_AUDIENCE", "sso-backend"),
		BackendTokenTTL:      p.duration("BACKEND_TOKEN_TTL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	if cfg.CookieSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate COOKIE_SECRET: %w", err)
		}
		cfg.CookieSecret = secret
		cfg.CookieSecretGenerated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BackendTokenEnabled reports whether verify responses carry X-Backend-Token.
func (c *Config) BackendTokenEnabled() bool {
	return c.BackendTokenSecret != ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("env")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be an absolute URL", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be positive", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// parser collects conversion errors so that every bad value is reported.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s format: %w", key, err))
		return fallback
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s format: %w", key, err))
		return fallback
	}
	return n
}

func (p *parser) boolean(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s format: %w", key, err))
		return fallback
	}
	return b
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// getEnv retrieves an environment variable or returns a fallback value.
// <KEY>_FILE, when set and readable, takes precedence.
func getEnv(key, fallback string) string {
	if path := os.Getenv(key + "_FILE"); path != "" {
		content, err := os.ReadFile(path)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
