package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qapi/utils"
	"github.com/quatton/qwell/pkg/qart"
	"github.com/quatton/qwell/pkg/qauth"
)

type EnvConfig struct {
	Port        string `envconfig:"PORT" default:"3000"`
	BaseURL     string `envconfig:"BASE_URL" required:"true"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`

	AuthSecret            string `envconfig:"AUTH_SECRET" required:"true"`
	AuthAlgorithm         string `envconfig:"AUTH_ALGORITHM" default:"HS256"`
	AccessTokenTTLMinutes int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"30"`
	RefreshTokenTTLDays   int    `envconfig:"REFRESH_TOKEN_TTL_DAYS" default:"7"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"qwell"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"password"`
	DBName     string `envconfig:"DB_NAME" default:"qwell"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Empty ValkeyAddr selects the in-process store.
	ValkeyAddr     string `envconfig:"VALKEY_ADDR"`
	ValkeyPassword string `envconfig:"VALKEY_PASSWORD"`
	ValkeyDB       int    `envconfig:"VALKEY_DB" default:"0"`

	// Empty S3Endpoint selects the in-process object store.
	S3Endpoint  string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string        `envconfig:"S3_SECRET_KEY"`
	S3Bucket    string        `envconfig:"S3_BUCKET" default:"qwell-meals"`
	S3Region    string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3UseSSL    bool          `envconfig:"S3_USE_SSL" default:"false"`
	ImageURLTTL time.Duration `envconfig:"IMAGE_URL_TTL" default:"15m"`

	ClassifierURL      string        `envconfig:"CLASSIFIER_URL"`
	ClassifierTimeout  time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"10s"`
	ClassifierRPS      float64       `envconfig:"CLASSIFIER_RPS" default:"5"`
	ClassifierCacheTTL time.Duration `envconfig:"CLASSIFIER_CACHE_TTL" default:"1h"`

	KakaoClientID     string `envconfig:"KAKAO_CLIENT_ID"`
	KakaoClientSecret string `envconfig:"KAKAO_CLIENT_SECRET"`
	KakaoRedirectURL  string `envconfig:"KAKAO_REDIRECT_URL"`
	AllowedRedirects  string `envconfig:"ALLOWED_REDIRECTS"`
}

// Load reads the environment without validating it.
func Load() (*EnvConfig, error) {
	if utils.IsDev() {
		if err := godotenv.Load(); err != nil {
			log.Println("ℹ No .env file found")
		} else {
			log.Println("✓ Loaded .env file")
		}
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return &cfg, nil
}

func ValidateEnv() (*EnvConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) Validate() error {
	var errors []string

	if len(c.AuthSecret) < 32 {
		errors = append(errors, "  ❌ AUTH_SECRET must be at least 32 characters")
	}

	switch c.AuthAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		errors = append(errors, "  ❌ AUTH_ALGORITHM must be one of HS256, HS384, HS512")
	}

	if c.AccessTokenTTLMinutes <= 0 {
		errors = append(errors, "  ❌ ACCESS_TOKEN_TTL_MINUTES must be positive")
	}

	if c.RefreshTokenTTLDays <= 0 {
		errors = append(errors, "  ❌ REFRESH_TOKEN_TTL_DAYS must be positive")
	} else if c.AccessTokenTTLMinutes > 0 && c.AccessTTL() >= c.RefreshTTL() {
		errors = append(errors, "  ❌ access token lifetime must be shorter than refresh token lifetime")
	}

	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		errors = append(errors, "  ❌ BASE_URL must be a valid URL")
	}

	if c.ClassifierURL != "" {
		if _, err := url.ParseRequestURI(c.ClassifierURL); err != nil {
			errors = append(errors, "  ❌ CLASSIFIER_URL must be a valid URL")
		}
	}

	if c.ClassifierTimeout <= 0 {
		errors = append(errors, "  ❌ CLASSIFIER_TIMEOUT must be positive")
	}

	if (c.KakaoClientID != "" && c.KakaoRedirectURL == "") || (c.KakaoClientID == "" && c.KakaoRedirectURL != "") {
		errors = append(errors, "  ❌ Both KAKAO_CLIENT_ID and KAKAO_REDIRECT_URL must be set together")
	}

	if c.S3Endpoint != "" && (c.S3AccessKey == "" || c.S3SecretKey == "") {
		errors = append(errors, "  ❌ S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}

func (c *EnvConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *EnvConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

// TokenConfig is the token codec configuration derived from the environment.
func (c *EnvConfig) TokenConfig() qauth.Config {
	return qauth.Config{
		Secret:     []byte(c.AuthSecret),
		Algorithm:  c.AuthAlgorithm,
		AccessTTL:  c.AccessTTL(),
		RefreshTTL: c.RefreshTTL(),
	}
}

func (c *EnvConfig) DBConfig() db.Config {
	return db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Database: c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

func (c *EnvConfig) ValkeyConfig() kv.ValkeyConfig {
	return kv.ValkeyConfig{Addr: c.ValkeyAddr, Password: c.ValkeyPassword, DB: c.ValkeyDB}
}

func (c *EnvConfig) S3Config() qart.S3Config {
	return qart.S3Config{
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		UseSSL:    c.S3UseSSL,
	}
}

// Redirects returns the ALLOWED_REDIRECTS allowlist.
func (c *EnvConfig) Redirects() []string {
	var out []string
	for _, r := range strings.Split(c.AllowedRedirects, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("📋 Configuration:\n")
	fmtr("  Environment: %s\n", utils.Normalize(c.Environment))
	fmtr("  Port: %s\n", c.Port)
	fmtr("  Base URL: %s\n", c.BaseURL)
	fmtr("  Auth Secret: %s (%s)\n", MaskSecret(c.AuthSecret), c.AuthAlgorithm)
	fmtr("  Token TTL: access %s, refresh %s\n", c.AccessTTL(), c.RefreshTTL())
	fmtr("  Database: %s@%s:%d/%s (sslmode=%s)\n", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)

	if c.ValkeyAddr != "" {
		fmtr("  Valkey: ✓ %s (db %d)\n", c.ValkeyAddr, c.ValkeyDB)
	} else {
		fmtr("  Valkey: ✗ Disabled (in-memory)\n")
	}

	if c.S3Endpoint != "" {
		fmtr("  S3: ✓ %s/%s\n", c.S3Endpoint, c.S3Bucket)
		fmtr("    Access Key: %s\n", MaskSecret(c.S3AccessKey))
	} else {
		fmtr("  S3: ✗ Disabled (in-memory)\n")
	}

	if c.ClassifierURL != "" {
		fmtr("  Classifier: ✓ %s (timeout %s, %.1f rps)\n", c.ClassifierURL, c.ClassifierTimeout, c.ClassifierRPS)
	} else {
		fmtr("  Classifier: ✗ Disabled\n")
	}

	if c.KakaoClientID != "" {
		fmtr("  Kakao OAuth: ✓ Enabled\n")
		fmtr("    Client ID: %s\n", MaskSecret(c.KakaoClientID))
	} else {
		fmtr("  Kakao OAuth: ✗ Disabled\n")
	}
}
