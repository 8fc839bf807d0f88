// Package config loads the application configuration: defaults, then an
// optional YAML file, then FORMWIZARD_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/store"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "formwizard.yaml"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Lookup sources.
const (
	SourceStatic = "static"
	SourceLive   = "live"
)

// Sink formats for confirmed records.
const (
	SinkLog    = "log"
	SinkJSON   = "json"
	SinkPretty = "pretty"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Server struct {
	Addr              string        `yaml:"addr"`
	BasePath          string        `yaml:"base_path"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	// Key is the slot key; per-session slots are prefixed with the session id.
	Key      string        `yaml:"key"`
	Dir      string        `yaml:"dir"`
	DSN      string        `yaml:"dsn"`
	Table    string        `yaml:"table"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type Lookup struct {
	Source       string        `yaml:"source"`
	APIKey       string        `yaml:"api_key"`
	CountriesURL string        `yaml:"countries_url"`
	CitiesURL    string        `yaml:"cities_url"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	Timeout      time.Duration `yaml:"timeout"`
}

type Theme struct {
	Name         string `yaml:"name"`
	Variant      string `yaml:"variant"`
	Brand        string `yaml:"brand"`
	TemplatesDir string `yaml:"templates_dir"`
}

type Session struct {
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full application configuration.
type Config struct {
	Server  Server        `yaml:"server"`
	Storage Storage       `yaml:"storage"`
	Lookup  Lookup        `yaml:"lookup"`
	Wizard  wizard.Config `yaml:"wizard"`
	Sink    string        `yaml:"sink"`
	Theme   Theme         `yaml:"theme"`
	Session Session       `yaml:"session"`
	Logging Logging       `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: Storage{
			Driver: DriverMemory,
			Key:    store.DefaultKey,
			Dir:    ".formwizard",
		},
		Lookup: Lookup{
			Source:   SourceStatic,
			CacheTTL: time.Hour,
			Timeout:  10 * time.Second,
		},
		Wizard: wizard.Config{Formatting: validation.FormattingRaw},
		Sink:   SinkLog,
		Theme:  Theme{Name: "formwizard", Variant: "light"},
		Session: Session{
			// Development default, override with FORMWIZARD_SESSION_SECRET.
			Secret:     "dev-secret-change-me",
			CookieName: "formwizard_session",
			TTL:        24 * time.Hour,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from path and the process environment. An
// empty path falls back to DefaultPath when that file exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Parse(bytes.NewReader(raw)); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays FORMWIZARD_* variables read through getenv. The lookup
// credential also falls back to RAPIDAPI_KEY.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	setBool := func(dst *bool, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString(&c.Server.Addr, "FORMWIZARD_ADDR")
	setString(&c.Server.BasePath, "FORMWIZARD_BASE_PATH")

	setString(&c.Storage.Driver, "FORMWIZARD_STORAGE_DRIVER")
	setString(&c.Storage.Dir, "FORMWIZARD_STORAGE_DIR")
	setString(&c.Storage.DSN, "FORMWIZARD_STORAGE_DSN")
	setString(&c.Storage.RedisURL, "FORMWIZARD_REDIS_URL")
	setDuration(&c.Storage.TTL, "FORMWIZARD_STORAGE_TTL")

	setString(&c.Lookup.Source, "FORMWIZARD_LOOKUP_SOURCE")
	setString(&c.Lookup.APIKey, "RAPIDAPI_KEY")
	setString(&c.Lookup.APIKey, "FORMWIZARD_LOOKUP_API_KEY")
	setDuration(&c.Lookup.CacheTTL, "FORMWIZARD_LOOKUP_CACHE_TTL")

	var formatting string
	setString(&formatting, "FORMWIZARD_DISPLAY_FORMATTING")
	if formatting != "" {
		c.Wizard.Formatting = validation.Formatting(formatting)
	}
	setBool(&c.Wizard.StrictLocation, "FORMWIZARD_STRICT_LOCATION")
	setBool(&c.Wizard.ResetOnConfirm, "FORMWIZARD_RESET_ON_CONFIRM")
	setString(&c.Sink, "FORMWIZARD_SINK")

	setString(&c.Theme.Name, "FORMWIZARD_THEME")
	setString(&c.Theme.Variant, "FORMWIZARD_THEME_VARIANT")

	setString(&c.Session.Secret, "FORMWIZARD_SESSION_SECRET")
	setBool(&c.Session.Secure, "FORMWIZARD_SESSION_SECURE")

	setString(&c.Logging.Level, "FORMWIZARD_LOG_LEVEL")
	setString(&c.Logging.Format, "FORMWIZARD_LOG_FORMAT")
}

// Validate normalizes enumerations and rejects unusable combinations.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.Dir == "" {
			invalid("storage.dir is required for the file driver")
		}
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			invalid("storage.dsn is required for the %s driver", c.Storage.Driver)
		}
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			invalid("storage.redis_url is required for the redis driver")
		}
	default:
		invalid("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		c.Storage.Key = store.DefaultKey
	}

	c.Lookup.Source = strings.ToLower(strings.TrimSpace(c.Lookup.Source))
	switch c.Lookup.Source {
	case SourceStatic, SourceLive:
	default:
		invalid("unknown lookup.source %q", c.Lookup.Source)
	}

	formatting, err := validation.ParseFormatting(string(c.Wizard.Formatting))
	if err != nil {
		invalid("wizard.display_formatting: %v", err)
	}
	c.Wizard.Formatting = formatting

	c.Sink = strings.ToLower(strings.TrimSpace(c.Sink))
	switch c.Sink {
	case SinkLog, SinkJSON, SinkPretty:
	default:
		invalid("unknown sink %q", c.Sink)
	}

	if strings.TrimSpace(c.Session.Secret) == "" {
		invalid("session.secret must not be empty")
	}
	if c.Session.TTL <= 0 {
		invalid("session.ttl must be positive")
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		invalid("unknown logging.level %q", c.Logging.Level)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "text", "json":
	default:
		invalid("unknown logging.format %q", c.Logging.Format)
	}

	if c.Server.BasePath != "" {
		c.Server.BasePath = "/" + strings.Trim(c.Server.BasePath, "/")
		if c.Server.BasePath == "/" {
			c.Server.BasePath = ""
		}
	}
	return errors.Join(errs...)
}
