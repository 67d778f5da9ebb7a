package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Import modes.
const (
	ImportModeSafe = "safe"
	ImportModeFull = "full"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	Index  IndexConfig       `yaml:"index"`
	Remote RemoteConfig      `yaml:"remote"`
	Sync   SyncConfig        `yaml:"sync"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
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

// HTTPConfig holds the control-plane HTTP server configuration.
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

// VaultConfig holds the markdown vault location. Folder is the
// subdirectory imports write into; empty means the vault root.
type VaultConfig struct {
	Path   string `yaml:"path"`
	Folder string `yaml:"folder"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// IndexConfig holds the sync-state SQLite database location.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RemoteConfig holds the knowledge-graph API connection settings. SpaceID
// and TypeKey are the defaults applied to documents that do not declare
// their own.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Version string `yaml:"version"`
	SpaceID string `yaml:"space_id"`
	TypeKey string `yaml:"type_key"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Version, validation.Required),
	)
}

// SyncConfig tunes sync behaviour.
//
// ImportMode controls what an import does to an existing document:
//   - "safe" (default): rewrite only the header block, preserve the body.
//   - "full": replace header and body and rename to the remote name.
type SyncConfig struct {
	ImportMode    string `yaml:"import_mode"`
	ProgressEvery int    `yaml:"progress_every"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.ImportMode == "" {
		c.ImportMode = ImportModeSafe
	}
	if c.ProgressEvery == 0 {
		c.ProgressEvery = 10
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.ImportMode, validation.Required, validation.In(ImportModeSafe, ImportModeFull)),
		validation.Field(&c.ProgressEvery, validation.Min(1)),
	)
}

// AuthConfig holds control-plane authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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
		Vault: VaultConfig{
			Path: "./vault",
		},
		Index: IndexConfig{
			Path: "./gebo.db",
		},
		Remote: RemoteConfig{
			BaseURL: "http://localhost:31009/v1",
			Version: "2025-05-20",
		},
		Sync: SyncConfig{
			ImportMode:    ImportModeSafe,
			ProgressEvery: 10,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
