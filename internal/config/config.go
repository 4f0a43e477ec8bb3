// Package config loads go-themepdf YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-themepdf/internal/dateutil"
	"github.com/alnah/go-themepdf/internal/fileutil"
	"github.com/alnah/go-themepdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength     = 255
	MaxPathLength     = 4096
	MaxURLLength      = 2048
	MaxPasswordLength = 72 // bcrypt input limit
	MaxRealmLength    = 100
	MaxDurationLength = 20
	MaxNameLength     = 50
)

// Defaults.
const (
	DefaultAddr        = ":3000"
	DefaultUploadDir   = "."
	DefaultStaticDir   = "dist"
	DefaultTimeout     = 60 * time.Second
	DefaultNetworkIdle = 500 * time.Millisecond
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRealm       = "ThemePDF"
	DefaultServerURL   = "http://localhost:3000"
	DefaultMaxBodyMB   = 50

	// AutoJobs sizes the render limiter from GOMAXPROCS.
	AutoJobs = -1
)

// UserConfigDirName is the directory under os.UserConfigDir searched by name.
const UserConfigDirName = "go-themepdf"

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Render  RenderConfig  `yaml:"render"`
	Auth    AuthConfig    `yaml:"auth"`
	Assets  AssetsConfig  `yaml:"assets"`
	Preview PreviewConfig `yaml:"preview"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP render service.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	Production bool   `yaml:"production"`
	UploadDir  string `yaml:"uploadDir"` // save-upload destination
	StaticDir  string `yaml:"staticDir"` // production bundle with index.html
	MaxBodyMB  int    `yaml:"maxBodyMB"`
}

// RenderConfig configures headless rendering.
type RenderConfig struct {
	Timeout     string `yaml:"timeout"`     // Go duration, e.g. "60s"
	NetworkIdle string `yaml:"networkIdle"` // quiet window before printing
	MaxJobs     int    `yaml:"maxJobs"`     // -1 auto, 0 unbounded, n explicit
	BrowserBin  string `yaml:"browserBin"`
	NoSandbox   bool   `yaml:"noSandbox"`
}

// AuthConfig configures the login gate and production basic auth.
type AuthConfig struct {
	Password     string            `yaml:"password"`     // plain text, hashed on load
	PasswordHash string            `yaml:"passwordHash"` // bcrypt hash, wins over password
	SessionTTL   string            `yaml:"sessionTTL"`
	BasicUsers   map[string]string `yaml:"basicUsers"` // user -> password
	Realm        string            `yaml:"realm"`
}

// AssetsConfig points at custom stylesheet/template overrides.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = embedded assets only
}

// PreviewConfig configures the workspace page.
type PreviewConfig struct {
	DateFormat string `yaml:"dateFormat"` // preset (us, iso, european, long) or tokens
	Origin     string `yaml:"origin"`     // origin the workspace is served from
}

// ExportConfig holds defaults for the export command.
type ExportConfig struct {
	ServerURL string `yaml:"serverURL"`
	Theme     string `yaml:"theme"`
	Mode      string `yaml:"mode"`
	OutputDir string `yaml:"outputDir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      DefaultAddr,
			UploadDir: DefaultUploadDir,
			StaticDir: DefaultStaticDir,
			MaxBodyMB: DefaultMaxBodyMB,
		},
		Render: RenderConfig{
			Timeout:     DefaultTimeout.String(),
			NetworkIdle: DefaultNetworkIdle.String(),
			MaxJobs:     AutoJobs,
		},
		Auth: AuthConfig{
			SessionTTL: DefaultSessionTTL.String(),
			Realm:      DefaultRealm,
		},
		Preview: PreviewConfig{DateFormat: dateutil.DefaultPreset},
		Export:  ExportConfig{ServerURL: DefaultServerURL},
		Log:     LogConfig{Level: "info"},
	}
}

// Validate checks field lengths and value formats.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"server.uploadDir", c.Server.UploadDir, MaxPathLength},
		{"server.staticDir", c.Server.StaticDir, MaxPathLength},
		{"render.timeout", c.Render.Timeout, MaxDurationLength},
		{"render.networkIdle", c.Render.NetworkIdle, MaxDurationLength},
		{"render.browserBin", c.Render.BrowserBin, MaxPathLength},
		{"auth.password", c.Auth.Password, MaxPasswordLength},
		{"auth.sessionTTL", c.Auth.SessionTTL, MaxDurationLength},
		{"auth.realm", c.Auth.Realm, MaxRealmLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"preview.dateFormat", c.Preview.DateFormat, dateutil.MaxDateFormatLength},
		{"preview.origin", c.Preview.Origin, MaxURLLength},
		{"export.serverURL", c.Export.ServerURL, MaxURLLength},
		{"export.theme", c.Export.Theme, MaxNameLength},
		{"export.mode", c.Export.Mode, MaxNameLength},
		{"export.outputDir", c.Export.OutputDir, MaxPathLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	for field, value := range map[string]string{
		"render.timeout":  c.Render.Timeout,
		"auth.sessionTTL": c.Auth.SessionTTL,
	} {
		if _, err := parsePositiveDuration(field, value); err != nil {
			return err
		}
	}
	if _, err := parseNonNegativeDuration("render.networkIdle", c.Render.NetworkIdle); err != nil {
		return err
	}

	if c.Render.MaxJobs < AutoJobs {
		return fmt.Errorf("%w: render.maxJobs must be -1 (auto), 0 (unbounded) or positive, got %d", ErrInvalidValue, c.Render.MaxJobs)
	}
	if c.Server.MaxBodyMB < 0 {
		return fmt.Errorf("%w: server.maxBodyMB must not be negative, got %d", ErrInvalidValue, c.Server.MaxBodyMB)
	}

	for user, pass := range c.Auth.BasicUsers {
		if user == "" || strings.Contains(user, ":") {
			return fmt.Errorf("%w: auth.basicUsers: invalid user name %q", ErrInvalidValue, user)
		}
		if err := validateFieldLength("auth.basicUsers."+user, pass, MaxPasswordLength); err != nil {
			return err
		}
	}

	if c.Preview.DateFormat != "" {
		if err := dateutil.Validate(c.Preview.DateFormat); err != nil {
			return fmt.Errorf("preview.dateFormat: %w", err)
		}
	}

	if c.Export.ServerURL != "" && !fileutil.IsURL(c.Export.ServerURL) {
		return fmt.Errorf("%w: export.serverURL must start with http:// or https://, got %q", ErrInvalidValue, c.Export.ServerURL)
	}
	if c.Preview.Origin != "" && !fileutil.IsURL(c.Preview.Origin) {
		return fmt.Errorf("%w: preview.origin must start with http:// or https://, got %q", ErrInvalidValue, c.Preview.Origin)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level must be debug, info, warn or error, got %q", ErrInvalidValue, c.Log.Level)
	}

	return nil
}

// RenderTimeout returns render.timeout, or the default when unset.
func (c *Config) RenderTimeout() time.Duration {
	return durationOr(c.Render.Timeout, DefaultTimeout)
}

// NetworkIdle returns render.networkIdle, or the default when unset.
// An explicit zero ("0s") disables the network-idle wait.
func (c *Config) NetworkIdle() time.Duration {
	if c.Render.NetworkIdle == "" {
		return DefaultNetworkIdle
	}
	d, err := parseNonNegativeDuration("render.networkIdle", c.Render.NetworkIdle)
	if err != nil {
		return DefaultNetworkIdle
	}
	return d
}

// SessionTTL returns auth.sessionTTL, or the default when unset.
func (c *Config) SessionTTL() time.Duration {
	return durationOr(c.Auth.SessionTTL, DefaultSessionTTL)
}

// MaxBodyBytes returns the JSON body limit in bytes.
func (c *Config) MaxBodyBytes() int64 {
	mb := c.Server.MaxBodyMB
	if mb == 0 {
		mb = DefaultMaxBodyMB
	}
	return int64(mb) << 20
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parsePositiveDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, field, s)
	}
	return d, nil
}

func parseNonNegativeDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidValue, field, s)
	}
	return d, nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads a config by name or path. Values absent from the file
// keep their defaults.
//
// A name ("prod") is looked up as prod.yaml / prod.yml in the current
// directory, then in ~/.config/go-themepdf/. A value containing a path
// separator is read directly.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the files LoadConfig tries for a name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, UserConfigDirName, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
