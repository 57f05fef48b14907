package qsdk

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the client-side view of a qwell deployment: which server to
// talk to and which account to log in with when the access token lapses.
type Config struct {
	BaseURL    string        `mapstructure:"baseUrl"`
	APIVersion string        `mapstructure:"apiVersion"`
	Email      string        `mapstructure:"email"`
	Timeout    time.Duration `mapstructure:"timeout"`

	v *viper.Viper
}

const (
	EnvPrefix  = "QWELL"
	ConfigName = "qwell"
	ConfigRoot = ".qwell"

	BaseUrlKey    = "baseUrl"
	ApiVersionKey = "apiVersion"
	EmailKey      = "email"
	TimeoutKey    = "timeout"

	DefaultBaseURL    = "http://localhost:3000"
	DefaultAPIVersion = "v1"
	DefaultTimeout    = 30 * time.Second
)

var configKeys = []string{BaseUrlKey, ApiVersionKey, EmailKey, TimeoutKey}

// configLayers lists the files merged when no explicit file is given, lowest
// precedence first: user-wide, project (tracked), local override (untracked).
func configLayers() []string {
	var layers []string
	if dir, err := os.UserConfigDir(); err == nil {
		layers = append(layers, filepath.Join(dir, ConfigName, "config.yaml"))
	}
	for _, name := range []string{"qwell.yaml", "qwell.yml", ".qwell.yaml"} {
		if _, err := os.Stat(name); err == nil {
			layers = append(layers, name)
			break
		}
	}
	return append(layers, filepath.Join(ConfigRoot, "config.yaml"))
}

// LoadConfig builds a Config on its own viper instance. QWELL_* environment
// variables override every file.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		for _, path := range configLayers() {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merging %s: %w", path, err)
			}
		}
	}

	v.SetDefault(BaseUrlKey, DefaultBaseURL)
	v.SetDefault(ApiVersionKey, DefaultAPIVersion)
	v.SetDefault(TimeoutKey, DefaultTimeout)
	if v.IsSet(BaseUrlKey) {
		v.Set(BaseUrlKey, strings.TrimRight(v.GetString(BaseUrlKey), "/"))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.v = v
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("baseUrl %q must be an absolute http(s) URL", c.BaseURL)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// APIPrefix is the path every API route hangs off, e.g. /api/v1.
func (c *Config) APIPrefix() string {
	return apiPrefixFor(c.APIVersion)
}

func apiPrefixFor(version string) string {
	if version == "" {
		version = DefaultAPIVersion
	}
	return "/api/" + strings.Trim(version, "/")
}

// GetString reads a key from the underlying viper instance, picking up
// flags bound after loading.
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// Viper returns the underlying viper instance for flag binding.
func (c *Config) Viper() *viper.Viper {
	return c.v
}
