package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.Production {
		t.Error("Server.Production = true, want false")
	}
	if cfg.Render.MaxJobs != AutoJobs {
		t.Errorf("Render.MaxJobs = %d, want %d", cfg.Render.MaxJobs, AutoJobs)
	}
	if cfg.RenderTimeout() != DefaultTimeout {
		t.Errorf("RenderTimeout() = %v, want %v", cfg.RenderTimeout(), DefaultTimeout)
	}
	if cfg.NetworkIdle() != DefaultNetworkIdle {
		t.Errorf("NetworkIdle() = %v, want %v", cfg.NetworkIdle(), DefaultNetworkIdle)
	}
	if cfg.MaxBodyBytes() != 50<<20 {
		t.Errorf("MaxBodyBytes() = %d, want %d", cfg.MaxBodyBytes(), 50<<20)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{name: "empty", value: "", maxLength: 10},
		{name: "at limit", value: strings.Repeat("a", 10), maxLength: 10},
		{name: "over limit", value: strings.Repeat("a", 11), maxLength: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldLength("field", tt.value, tt.maxLength)
			if tt.wantErr && !errors.Is(err, ErrFieldTooLong) {
				t.Errorf("error = %v, want ErrFieldTooLong", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "unparseable timeout",
			mutate:  func(c *Config) { c.Render.Timeout = "soon" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Render.Timeout = "-5s" },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "network idle disabled",
			mutate: func(c *Config) { c.Render.NetworkIdle = "0s" },
		},
		{
			name:    "negative network idle",
			mutate:  func(c *Config) { c.Render.NetworkIdle = "-1ms" },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "unbounded jobs",
			mutate: func(c *Config) { c.Render.MaxJobs = 0 },
		},
		{
			name:    "max jobs below auto",
			mutate:  func(c *Config) { c.Render.MaxJobs = -2 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "basic user with colon",
			mutate:  func(c *Config) { c.Auth.BasicUsers = map[string]string{"a:b": "pw"} },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "password over bcrypt limit",
			mutate:  func(c *Config) { c.Auth.Password = strings.Repeat("p", MaxPasswordLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "server URL without scheme",
			mutate:  func(c *Config) { c.Export.ServerURL = "localhost:3000" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "custom date tokens",
			mutate: func(c *Config) { c.Preview.DateFormat = "DD MMM YYYY" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_NetworkIdle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset uses default", value: "", want: DefaultNetworkIdle},
		{name: "explicit zero skips the wait", value: "0s", want: 0},
		{name: "bare zero", value: "0", want: 0},
		{name: "custom window", value: "250ms", want: 250 * time.Millisecond},
		{name: "unparseable uses default", value: "quiet", want: DefaultNetworkIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Render.NetworkIdle = tt.value
			if got := cfg.NetworkIdle(); got != tt.want {
				t.Errorf("NetworkIdle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("file path loads config over defaults", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "test.yaml")
		content := `server:
  production: true
  addr: ":8080"
render:
  timeout: "90s"
  maxJobs: 2
auth:
  basicUsers:
    admin: "secret"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if !cfg.Server.Production {
			t.Error("Server.Production = false, want true")
		}
		if cfg.Server.Addr != ":8080" {
			t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
		}
		if cfg.RenderTimeout() != 90*time.Second {
			t.Errorf("RenderTimeout() = %v, want 90s", cfg.RenderTimeout())
		}
		if cfg.Render.MaxJobs != 2 {
			t.Errorf("Render.MaxJobs = %d, want 2", cfg.Render.MaxJobs)
		}
		if cfg.Auth.BasicUsers["admin"] != "secret" {
			t.Errorf("Auth.BasicUsers = %v", cfg.Auth.BasicUsers)
		}
		// Untouched sections keep defaults.
		if cfg.Export.ServerURL != DefaultServerURL {
			t.Errorf("Export.ServerURL = %q, want default", cfg.Export.ServerURL)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("server: [unclosed"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "unknown.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  port: 3000\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(configPath, []byte("render:\n  timeout: \"-1s\"\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("name resolves in current directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		if err := os.WriteFile("local.yml", []byte("log:\n  level: debug\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig("local")
		if err != nil {
			t.Fatalf("LoadConfig(local) error = %v", err)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
		}
	})

	t.Run("missing name lists searched paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadConfig("missing-xyz")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "missing-xyz.yaml") {
			t.Errorf("error should list tried paths, got %v", err)
		}
	})
}
