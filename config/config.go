package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults for the shipped game.
const (
	DefaultOrigin          = "https://blektre.com"
	DefaultAppID           = 3045400
	DefaultWrapper         = "wrapper.html"
	DefaultVersionFile     = "version.txt"
	DefaultFallbackVersion = "VERSION2002_HOTFIX333"
	DefaultFrameID         = "mainframe"
	AppName                = "web2view"
)

// Config is the complete shell configuration.
type Config struct {
	Game      GameConfig      `yaml:"game"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Window    WindowConfig    `yaml:"window"`
	Steam     SteamConfig     `yaml:"steam"`
	Inspector InspectorConfig `yaml:"inspector"`
	Logging   LoggingConfig   `yaml:"logging"`

	// DataDir holds store.json. Defaults to the per-user config dir.
	DataDir string `yaml:"data_dir"`
}

// GameConfig describes the wrapped game.
type GameConfig struct {
	Origin          string `yaml:"origin"`
	AppID           uint32 `yaml:"app_id"`
	Wrapper         string `yaml:"wrapper"`
	VersionFile     string `yaml:"version_file"`
	FallbackVersion string `yaml:"fallback_version"`
	FrameID         string `yaml:"frame_id"`
}

// BridgeConfig holds the origin allow-list. The game origin and the null
// origin are always accepted in addition to these.
type BridgeConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WindowConfig holds native window settings.
type WindowConfig struct {
	Title    string `yaml:"title"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	DevTools bool   `yaml:"devtools"`
}

// SteamConfig describes the platform sidecar. An empty command runs the
// shell in demo mode.
type SteamConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// InspectorConfig holds the traffic inspector listen address.
type InspectorConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Origin:          DefaultOrigin,
			AppID:           DefaultAppID,
			Wrapper:         DefaultWrapper,
			VersionFile:     DefaultVersionFile,
			FallbackVersion: DefaultFallbackVersion,
			FrameID:         DefaultFrameID,
		},
		Bridge: BridgeConfig{
			AllowedOrigins: []string{"https://bdev.blektre.com"},
		},
		Window: WindowConfig{
			Title:  "Blektre",
			Width:  1280,
			Height: 720,
		},
		Inspector: InspectorConfig{
			Addr: "127.0.0.1:0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Path returns the config file location.
// Priority: WEB2VIEW_CONFIG env var > <user config dir>/web2view/config.yaml
func Path() string {
	if envPath := os.Getenv("WEB2VIEW_CONFIG"); envPath != "" {
		return envPath
	}
	return filepath.Join(UserDir(), "config.yaml")
}

// UserDir returns the per-user directory for the shell's files.
func UserDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, AppName)
}

// Load reads the configuration at path on top of Default. A missing file is
// not an error. Relative game paths are resolved against baseDir, normally
// the directory holding the executable.
func Load(path, baseDir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.resolve(baseDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the environment value, or "" when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) resolve(baseDir string) {
	c.Game.Origin = strings.TrimRight(strings.TrimSpace(c.Game.Origin), "/")
	if c.Game.FrameID == "" {
		c.Game.FrameID = DefaultFrameID
	}
	if c.Game.FallbackVersion == "" {
		c.Game.FallbackVersion = DefaultFallbackVersion
	}
	if baseDir != "" {
		c.Game.Wrapper = absFrom(baseDir, c.Game.Wrapper)
		c.Game.VersionFile = absFrom(baseDir, c.Game.VersionFile)
	}
	if c.DataDir == "" {
		c.DataDir = UserDir()
	}
}

func absFrom(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate checks the fields the shell cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Game.Origin)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("game.origin must be an absolute http(s) origin, got %q", c.Game.Origin)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("game.origin must not carry a path, got %q", c.Game.Origin)
	}
	if c.Game.Wrapper == "" {
		return fmt.Errorf("game.wrapper is required")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	for _, o := range c.Bridge.AllowedOrigins {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("bridge.allowed_origins must not contain empty entries")
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
