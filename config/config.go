// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SyncConfig configures the gist-backed reconciliation. Sync is optional:
// with an empty gist id the app runs purely local.
type SyncConfig struct {
	GistID string `yaml:"gistId,omitempty"`

	// TokenEnv names the environment variable holding the GitHub token,
	// so the token itself never lands in a config file.
	TokenEnv string `yaml:"tokenEnv,omitempty"`

	// Debounce is how long a burst of local changes coalesces before a
	// sync fires. Zero means the built-in default.
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// Config represents the application configuration.
type Config struct {
	// Players is the roster, in display order.
	Players []string `yaml:"players" validate:"required,min=1,dive,required"`

	// AllowedUsers maps a GitHub login to the player it controls. Logins
	// not in the map are rejected.
	AllowedUsers map[string]string `yaml:"allowedUsers,omitempty"`

	// AdminUsers are GitHub logins allowed to import, force-reset and
	// manage holidays.
	AdminUsers []string `yaml:"adminUsers,omitempty"`

	ListenAddr   string     `yaml:"listenAddr,omitempty"`
	DatabasePath string     `yaml:"databasePath,omitempty"`
	Sync         SyncConfig `yaml:"sync,omitempty"`
}

const configFileName = "swearjar.yaml"

var validate = validator.New()

// Load finds swearjar.yaml in the working directory or the home directory
// and returns the validated config.
func Load() (*Config, error) {
	path, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads and validates the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "./swearjar.db"
	}
	if c.Sync.TokenEnv == "" {
		c.Sync.TokenEnv = "SWEARJAR_GITHUB_TOKEN"
	}
}

// Validate runs struct validation plus the cross-field checks the tags
// cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Every allow-list target must be a roster player.
	roster := map[string]bool{}
	for _, p := range cfg.Players {
		roster[p] = true
	}
	for login, player := range cfg.AllowedUsers {
		if !roster[player] {
			return fmt.Errorf("allowedUsers[%s] maps to unknown player %q", login, player)
		}
	}
	return nil
}

// GithubToken reads the sync token from the configured environment
// variable. Empty when sync is unconfigured.
func (c *Config) GithubToken() string {
	return os.Getenv(c.Sync.TokenEnv)
}

// SyncEnabled reports whether the gist sync can run.
func (c *Config) SyncEnabled() bool {
	return c.Sync.GistID != "" && c.GithubToken() != ""
}

// IsAdmin reports whether the GitHub login is an administrator.
func (c *Config) IsAdmin(login string) bool {
	for _, a := range c.AdminUsers {
		if a == login {
			return true
		}
	}
	return false
}

// PlayerFor resolves the GitHub login to its roster player. Returns false
// for logins outside the allow-list.
func (c *Config) PlayerFor(login string) (string, bool) {
	p, ok := c.AllowedUsers[login]
	return p, ok
}

func findConfigFile() (string, error) {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	homePath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
