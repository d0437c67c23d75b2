package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds application configuration
type Config struct {
	SocketPath   string `toml:"socket_path"`
	LockPath     string `toml:"lock_path"`
	SettingsPath string `toml:"settings_path"`

	// Bundled runtime root (contains lo/program/soffice and licenses/)
	ResourcesDir string `toml:"resources_dir"`
	EnginePath   string `toml:"engine_path"` // explicit soffice override
	ChromePath   string `toml:"chrome_path"` // empty lets chromedp find a browser

	// Zero means no timeout
	EngineTimeoutSeconds int `toml:"engine_timeout_seconds"`
	RenderTimeoutSeconds int `toml:"render_timeout_seconds"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Verbose   bool   `toml:"verbose"`

	Security Security `toml:"security"`
}

// Security holds the optional input scanning options
type Security struct {
	ScanInputs   bool   `toml:"scan_inputs"`
	ClamdAddress string `toml:"clamd_address"`
}

const (
	defaultLogLevel     = "info"
	defaultLogFormat    = "auto"
	defaultClamdAddress = "localhost:3310"
	defaultSettingsPath = "~/.pdf-suite-elite/settings.json"
	defaultConfigPath   = "~/.config/pdfsuite/config.toml"
	socketName          = "pdfsuite.sock"
)

// Default returns a Config populated with defaults
func Default() Config {
	return Config{
		SocketPath:   defaultSocketPath(),
		SettingsPath: defaultSettingsPath,
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
		Security: Security{
			ClamdAddress: defaultClamdAddress,
		},
	}
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	p, _ := ExpandPath(defaultConfigPath)
	return p
}

// Load reads the TOML file at path over the defaults. A missing file is not an error.
// A .env file in the working directory and PDFSUITE_* variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}
	resolved, err := ExpandPath(path)
	if err != nil {
		return cfg, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return cfg, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString("PDFSUITE_SOCKET", &c.SocketPath)
	setString("PDFSUITE_SETTINGS", &c.SettingsPath)
	setString("PDFSUITE_RESOURCES", &c.ResourcesDir)
	setString("PDFSUITE_ENGINE", &c.EnginePath)
	setString("PDFSUITE_CHROME", &c.ChromePath)
	setString("PDFSUITE_LOG_LEVEL", &c.LogLevel)
	setString("PDFSUITE_LOG_FORMAT", &c.LogFormat)
	if v, ok := os.LookupEnv("PDFSUITE_SCAN_INPUTS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Security.ScanInputs = b
		}
	}
}

func (c *Config) normalize() error {
	for _, p := range []*string{&c.SocketPath, &c.LockPath, &c.SettingsPath, &c.ResourcesDir, &c.EnginePath, &c.ChromePath} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	if c.LockPath == "" && c.SocketPath != "" {
		c.LockPath = c.SocketPath + ".lock"
	}
	if c.Security.ClamdAddress == "" {
		c.Security.ClamdAddress = defaultClamdAddress
	}
	return nil
}

// Validate reports configuration errors
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return errors.New("socket_path must not be empty")
	}
	if c.SettingsPath == "" {
		return errors.New("settings_path must not be empty")
	}
	if c.EngineTimeoutSeconds < 0 {
		return errors.New("engine_timeout_seconds must not be negative")
	}
	if c.RenderTimeoutSeconds < 0 {
		return errors.New("render_timeout_seconds must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("log_format %q must be auto, console or json", c.LogFormat)
	}
	return nil
}

// EngineTimeout returns the office engine timeout, zero meaning none
func (c Config) EngineTimeout() time.Duration {
	return time.Duration(c.EngineTimeoutSeconds) * time.Second
}

// RenderTimeout returns the HTML render timeout, zero meaning none
func (c Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutSeconds) * time.Second
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return filepath.Clean(path), nil
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, socketName)
	}
	return filepath.Join(os.TempDir(), socketName)
}
