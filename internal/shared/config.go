package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// It carries API credentials, the helper connection settings, the local OAuth
// callback server, the history database and the combo → playlist bindings.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Helper      HelperConfig      `toml:"helper"`
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Bindings    []Binding         `toml:"bindings"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the persisted OAuth tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	Expiry       string `toml:"expiry"`
}

// Map returns the credential fields in the map form the services constructors accept.
func (s *SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Update stores the fields of an [oauth2.Token] for persistence.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidInput)
	}

	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		s.Expiry = token.Expiry.Format(time.RFC3339)
	}

	return nil
}

// Token reconstructs the persisted [oauth2.Token]. Returns nil when no token
// has been stored yet.
func (s *SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}

	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.Expiry != "" {
		if expiry, err := time.Parse(time.RFC3339, s.Expiry); err == nil {
			token.Expiry = expiry
		}
	}

	return token
}

// HelperConfig contains the hotkey helper connection settings.
type HelperConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Enabled bool   `toml:"enabled"`
}

// URL returns the helper's base URL.
func (h *HelperConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", h.Host, h.Port)
}

// ServerConfig contains the local OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Binding maps a canonical combo to its target playlists. Combos are stored
// in canonical form; callers normalize before mutating the config.
type Binding struct {
	Combo     string   `toml:"combo"`
	Playlists []string `toml:"playlists"`
}

// SetBinding inserts or replaces the binding for the given combo.
func (c *Config) SetBinding(b Binding) {
	for i, existing := range c.Bindings {
		if existing.Combo == b.Combo {
			c.Bindings[i] = b
			return
		}
	}
	c.Bindings = append(c.Bindings, b)
}

// RemoveBinding drops the binding for the given combo, reporting whether one existed.
func (c *Config) RemoveBinding(combo string) bool {
	for i, existing := range c.Bindings {
		if existing.Combo == combo {
			c.Bindings = append(c.Bindings[:i], c.Bindings[i+1:]...)
			return true
		}
	}
	return false
}

// Binding returns the binding for the given combo, if present.
func (c *Config) Binding(combo string) (Binding, bool) {
	for _, existing := range c.Bindings {
		if existing.Combo == combo {
			return existing, true
		}
	}
	return Binding{}, false
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// DefaultConfigPath returns the conventional config location under the user's
// config directory, falling back to the working directory.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "spotkeys.toml"
	}
	return filepath.Join(dir, "spotkeys", "spotkeys.toml")
}

// SaveConfig writes the configuration to the specified path as TOML.
//
// The file is written with owner-only permissions because it carries OAuth tokens.
func SaveConfig(path string, config *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidArgument)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
