package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-themepdf/internal/config"
)

// envPrefix scopes the CLI's environment variables.
const envPrefix = "THEMEPDF_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // THEMEPDF_CONFIG: config file path
	Production bool          // THEMEPDF_ENV=production
	Addr       string        // THEMEPDF_ADDR: listen address
	Timeout    time.Duration // THEMEPDF_TIMEOUT: render timeout

	// Tier 2 - Server
	MaxJobs   *int   // THEMEPDF_MAX_JOBS: -1 auto, 0 unbounded
	UploadDir string // THEMEPDF_UPLOAD_DIR
	StaticDir string // THEMEPDF_STATIC_DIR
	Password  string // THEMEPDF_PASSWORD: login gate password
	NoSandbox bool   // THEMEPDF_NO_SANDBOX=1

	// Tier 3 - Client and logging
	ServerURL string // THEMEPDF_SERVER_URL
	Theme     string // THEMEPDF_THEME
	Mode      string // THEMEPDF_MODE
	LogLevel  string // THEMEPDF_LOG_LEVEL
}

// knownEnvVars lists valid THEMEPDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1
	"THEMEPDF_CONFIG":  true,
	"THEMEPDF_ENV":     true,
	"THEMEPDF_ADDR":    true,
	"THEMEPDF_TIMEOUT": true,
	// Tier 2
	"THEMEPDF_MAX_JOBS":   true,
	"THEMEPDF_UPLOAD_DIR": true,
	"THEMEPDF_STATIC_DIR": true,
	"THEMEPDF_PASSWORD":   true,
	"THEMEPDF_NO_SANDBOX": true,
	// Tier 3
	"THEMEPDF_SERVER_URL":   true,
	"THEMEPDF_THEME":        true,
	"THEMEPDF_MODE":         true,
	"THEMEPDF_LOG_LEVEL":    true,
	"THEMEPDF_COLOR_SCHEME": true, // read by the library's system preference
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("THEMEPDF_CONFIG"),
		Production: strings.EqualFold(os.Getenv("THEMEPDF_ENV"), "production"),
		Addr:       os.Getenv("THEMEPDF_ADDR"),
		UploadDir:  os.Getenv("THEMEPDF_UPLOAD_DIR"),
		StaticDir:  os.Getenv("THEMEPDF_STATIC_DIR"),
		Password:   os.Getenv("THEMEPDF_PASSWORD"),
		NoSandbox:  isTruthy(os.Getenv("THEMEPDF_NO_SANDBOX")),
		ServerURL:  os.Getenv("THEMEPDF_SERVER_URL"),
		Theme:      os.Getenv("THEMEPDF_THEME"),
		Mode:       os.Getenv("THEMEPDF_MODE"),
		LogLevel:   os.Getenv("THEMEPDF_LOG_LEVEL"),
	}

	if timeout := os.Getenv("THEMEPDF_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if jobs := os.Getenv("THEMEPDF_MAX_JOBS"); jobs != "" {
		if n, err := strconv.Atoi(jobs); err == nil && n >= config.AutoJobs {
			cfg.MaxJobs = &n
		}
	}

	return cfg
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// warnUnknownEnvVars prints a warning for each unrecognized THEMEPDF_* variable.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config values with the variables that are set.
// Precedence: CLI flags > env vars > config file > defaults. Flags are
// applied afterwards by each command.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if env.Production {
		cfg.Server.Production = true
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.Timeout > 0 {
		cfg.Render.Timeout = env.Timeout.String()
	}

	// Tier 2
	if env.MaxJobs != nil {
		cfg.Render.MaxJobs = *env.MaxJobs
	}
	if env.UploadDir != "" {
		cfg.Server.UploadDir = env.UploadDir
	}
	if env.StaticDir != "" {
		cfg.Server.StaticDir = env.StaticDir
	}
	if env.Password != "" && cfg.Auth.PasswordHash == "" {
		cfg.Auth.Password = env.Password
	}
	if env.NoSandbox {
		cfg.Render.NoSandbox = true
	}

	// Tier 3
	if env.ServerURL != "" {
		cfg.Export.ServerURL = env.ServerURL
	}
	if env.Theme != "" {
		cfg.Export.Theme = env.Theme
	}
	if env.Mode != "" {
		cfg.Export.Mode = env.Mode
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
}

// resolveConfig loads the config named by flag, falling back to
// THEMEPDF_CONFIG, then defaults, and applies the environment on top.
func resolveConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		if cfg, err = config.LoadConfig(name); err != nil {
			return nil, err
		}
	}

	applyEnvConfig(env, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
