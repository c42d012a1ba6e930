package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"murlie/internal/domain"
)

type Config struct {
	Port           string        `yaml:"port"`
	DBDSN          string        `yaml:"db_dsn"`
	MediaDir       string        `yaml:"media_dir"`
	LogFile        string        `yaml:"log_file"`
	LogMode        string        `yaml:"log_mode"` // development | production
	CartMerge      string        `yaml:"cart_merge"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	CookieSecure   bool          `yaml:"cookie_secure"`
}

func Defaults() Config {
	return Config{
		Port:           "8080",
		DBDSN:          "murlie.db", // sqlite file in project root
		MediaDir:       "./web/media",
		LogFile:        "./murlie.log",
		LogMode:        "development",
		CartMerge:      "add",
		MaxUploadBytes: 5 << 20,
		SessionTTL:     24 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.mergeEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DB_DSN", &c.DBDSN)
	str("MEDIA_DIR", &c.MediaDir)
	str("LOG_FILE", &c.LogFile)
	str("LOG_MODE", &c.LogMode)
	str("CART_MERGE", &c.CartMerge)
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok {
		if n, err := cast.ToInt64E(v); err == nil && n > 0 {
			c.MaxUploadBytes = n
		}
	}
	if v, ok := lookup("SESSION_TTL"); ok {
		if d, err := cast.ToDurationE(v); err == nil && d > 0 {
			c.SessionTTL = d
		}
	}
	if v, ok := lookup("COOKIE_SECURE"); ok {
		c.CookieSecure = cast.ToBool(v)
	}
}

// MergeMode is the cart merge policy named by CartMerge.
func (c Config) MergeMode() domain.MergeMode { return domain.ParseMergeMode(c.CartMerge) }
