package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notebox/internal/prefs"
	"github.com/starford/notebox/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Prefs   PrefsConfig       `yaml:"prefs"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Prefs.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the initial backend and where the file backend lives.
type StorageConfig struct {
	DefaultBackend  string `yaml:"default_backend"`
	StrictMigration bool   `yaml:"strict_migration"`
	RememberBackend bool   `yaml:"remember_backend"`
	DataDir         string `yaml:"data_dir"`
	FileName        string `yaml:"file_name"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultBackend, validation.Required, validation.In("prefs", "file")),
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.FileName, validation.Required,
			validation.Match(bareFileName).Error("must be a file name without directories")),
	)
}

var bareFileName = regexp.MustCompile(`^[^/\\]+$`)

// Kind returns the configured default backend kind.
func (c *StorageConfig) Kind() storage.Kind {
	k, err := storage.ParseKind(c.DefaultBackend)
	if err != nil {
		return storage.KindPrefs
	}
	return k
}

// PrefsConfig configures the key-value medium behind the preference-store backend.
type PrefsConfig struct {
	Driver     string            `yaml:"driver"`
	Namespace  string            `yaml:"namespace"`
	SQLitePath string            `yaml:"sqlite_path"`
	Redis      prefs.RedisConfig `yaml:"redis"`
}

// Validate validates the preference store configuration.
func (c *PrefsConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(prefs.DriverSQLite, prefs.DriverRedis)),
		validation.Field(&c.Namespace, validation.Required),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == prefs.DriverSQLite, validation.Required)),
	); err != nil {
		return err
	}
	if c.Driver == prefs.DriverRedis {
		return validation.ValidateStruct(&c.Redis,
			validation.Field(&c.Redis.Host, validation.Required),
			validation.Field(&c.Redis.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.Redis.DB, validation.Min(0)),
		)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			DefaultBackend:  "prefs",
			RememberBackend: true,
			DataDir:         "./data",
			FileName:        storage.DefaultFileName,
		},
		Prefs: PrefsConfig{
			Driver:     prefs.DriverSQLite,
			Namespace:  "NotesAppPrefs",
			SQLitePath: "./data/prefs.db",
			Redis: prefs.RedisConfig{
				Host:    "localhost",
				Port:    6379,
				Timeout: 3 * time.Second,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
