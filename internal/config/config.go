// Package config handles loading and managing rosterview configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wesm/rosterview/internal/fileutil"
	"github.com/wesm/rosterview/internal/records"
)

// Source kinds.
const (
	SourceMock   = "mock"
	SourceSQLite = "sqlite"
)

// Config represents the rosterview configuration.
type Config struct {
	Data     DataConfig     `toml:"data"`
	Source   SourceConfig   `toml:"source"`
	View     ViewConfig     `toml:"view"`
	Sequence SequenceConfig `toml:"sequence"`
	Server   ServerConfig   `toml:"server"`
	Refresh  RefreshConfig  `toml:"refresh"`

	// Computed paths (not from config file)
	HomeDir    string `toml:"-"`
	ConfigPath string `toml:"-"`
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// SourceConfig selects and tunes the record provider.
type SourceConfig struct {
	Kind        string  `toml:"kind"`         // "mock" or "sqlite"
	Count       int     `toml:"count"`        // mock roster size
	Seed        uint64  `toml:"seed"`         // 0 = random
	LatencyMS   int     `toml:"latency_ms"`   // simulated fetch latency
	FailureRate float64 `toml:"failure_rate"` // probability a mock fetch fails
}

// ViewConfig holds the initial view parameters.
type ViewConfig struct {
	PageSize      int    `toml:"page_size"`
	Pagination    string `toml:"pagination"` // "paged" or "cumulative"
	SortKey       string `toml:"sort_key"`
	SortDirection string `toml:"sort_direction"` // "asc" or "desc"
}

// SequenceConfig holds delayed-sequence settings.
type SequenceConfig struct {
	DelayMS int `toml:"delay_ms"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int      `toml:"api_port"`         // HTTP server port (default: 8080)
	BindAddr        string   `toml:"bind_addr"`        // default 127.0.0.1
	APIKey          string   `toml:"api_key"`          // API authentication key
	CORSOrigins     []string `toml:"cors_origins"`     // empty disables CORS
	CORSCredentials bool     `toml:"cors_credentials"` // send Access-Control-Allow-Credentials
	CORSMaxAge      int      `toml:"cors_max_age"`     // preflight cache seconds
	AllowInsecure   bool     `toml:"allow_insecure"`   // permit non-loopback bind without api_key
}

// RefreshConfig holds the periodic reload schedule.
type RefreshConfig struct {
	Schedule string `toml:"schedule"` // cron expression; empty disables
}

// IsLoopback reports whether the bind address only accepts local
// connections. An empty address means the 127.0.0.1 default.
func (s ServerConfig) IsLoopback() bool {
	addr := s.BindAddr
	if addr == "" || addr == "localhost" {
		return true
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}

// ValidateSecure refuses to expose an unauthenticated API beyond loopback
// unless allow_insecure is set.
func (s ServerConfig) ValidateSecure() error {
	if s.IsLoopback() || s.APIKey != "" || s.AllowInsecure {
		return nil
	}
	return fmt.Errorf("refusing to bind API server to %s without api_key; "+
		"set [server] api_key or allow_insecure = true in config.toml", s.BindAddr)
}

// DefaultHome returns the default rosterview home directory.
// Respects ROSTERVIEW_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("ROSTERVIEW_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rosterview"
	}
	return filepath.Join(home, ".rosterview")
}

// NewDefaultConfig returns a configuration populated with defaults rooted
// at homeDir.
func NewDefaultConfig(homeDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		Data:    DataConfig{DataDir: homeDir},
		Source: SourceConfig{
			Kind:      SourceMock,
			Count:     120,
			LatencyMS: 1000,
		},
		View: ViewConfig{
			PageSize:      10,
			Pagination:    "paged",
			SortDirection: "asc",
		},
		Sequence: SequenceConfig{DelayMS: 1000},
		Server:   ServerConfig{APIPort: 8080},
	}
}

// Load reads the configuration. An explicit path must exist, and its
// directory becomes the home directory. Otherwise config.toml is read from
// homeDir (or DefaultHome when empty) if present.
func Load(path, homeDir string) (*Config, error) {
	explicit := path != ""
	switch {
	case explicit:
		path = expandPath(path)
		if homeDir == "" {
			homeDir = filepath.Dir(path)
		}
	case homeDir != "":
		homeDir = expandPath(homeDir)
		path = filepath.Join(homeDir, "config.toml")
	default:
		homeDir = DefaultHome()
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := NewDefaultConfig(homeDir)
	cfg.ConfigPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, decodeError(err)
	}

	cfg.Data.DataDir = expandPath(cfg.Data.DataDir)
	if cfg.Data.DataDir != "" && !filepath.IsAbs(cfg.Data.DataDir) {
		cfg.Data.DataDir = filepath.Join(homeDir, cfg.Data.DataDir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeError adds a hint for the most common TOML mistake: Windows paths
// with backslashes in double-quoted strings.
func decodeError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "escape") || strings.Contains(msg, "hexadecimal digits") {
		return fmt.Errorf("decode config: %w\nhint: use forward slashes (C:/data) or single quotes ('C:\\data') for paths", err)
	}
	return fmt.Errorf("decode config: %w", err)
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	switch c.Source.Kind {
	case "":
		c.Source.Kind = SourceMock
	case SourceMock, SourceSQLite:
	default:
		return fmt.Errorf("[source] kind %q: want %q or %q", c.Source.Kind, SourceMock, SourceSQLite)
	}
	if c.Source.Count < 0 {
		return fmt.Errorf("[source] count must not be negative")
	}
	if c.Source.LatencyMS < 0 {
		return fmt.Errorf("[source] latency_ms must not be negative")
	}
	if c.Source.FailureRate < 0 || c.Source.FailureRate > 1 {
		return fmt.Errorf("[source] failure_rate %v: want a value in [0, 1]", c.Source.FailureRate)
	}
	if c.View.PageSize <= 0 {
		return fmt.Errorf("[view] page_size must be positive")
	}
	switch strings.ToLower(c.View.Pagination) {
	case "", "paged", "cumulative":
	default:
		return fmt.Errorf("[view] pagination %q: want \"paged\" or \"cumulative\"", c.View.Pagination)
	}
	if _, err := records.ParseField(c.View.SortKey); err != nil {
		return fmt.Errorf("[view] sort_key: %w", err)
	}
	switch strings.ToLower(c.View.SortDirection) {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("[view] sort_direction %q: want \"asc\" or \"desc\"", c.View.SortDirection)
	}
	if c.Server.APIPort < 0 || c.Server.APIPort > 65535 {
		return fmt.Errorf("[server] api_port %d out of range", c.Server.APIPort)
	}
	return nil
}

// EnsureHomeDir creates the home and data directories, owner-only.
func (c *Config) EnsureHomeDir() error {
	for _, dir := range []string{c.HomeDir, c.Data.DataDir} {
		if dir == "" {
			continue
		}
		if err := fileutil.MkdirPrivate(dir); err != nil {
			return err
		}
	}
	return nil
}

// DatabasePath returns the path to the SQLite roster database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.DataDir, "roster.db")
}

// LogPath returns the file the TUI logs to.
func (c *Config) LogPath() string {
	return filepath.Join(c.HomeDir, "rosterview.log")
}

// expandPath expands a leading ~ or ~/ to the user's home directory.
// "~user" forms are left alone.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
