package desktop

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/yungbote/oceanml-backend/internal/handoff"
)

const defaultConfigPath = "~/.config/oceanml/desktop.toml"

// The API applies its own lease ceiling; these only keep local values sane.
const (
	maxTimeoutSeconds = 3600
	maxLeaseMinutes   = 7 * 24 * 60
)

// Config is the desktop app's local configuration.
type Config struct {
	APIBaseURL     string `toml:"api_base_url"`
	Scheme         string `toml:"scheme"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LeaseMinutes   int    `toml:"lease_minutes"`
	LogMode        string `toml:"log_mode"`
}

func Default() Config {
	return Config{
		APIBaseURL:     "http://localhost:8000",
		Scheme:         handoff.DefaultScheme,
		TimeoutSeconds: 30,
		LeaseMinutes:   60,
		LogMode:        "prod",
	}
}

// LoadConfig reads path (or the default location when empty), applies the
// OCEANML_API_URL override and validates the result. A missing file is not an
// error; defaults are used.
func LoadConfig(path string) (*Config, string, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("OCEANML_API_URL")); v != "" {
		cfg.APIBaseURL = v
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.Scheme = strings.TrimSpace(c.Scheme)
	if c.Scheme == "" {
		c.Scheme = handoff.DefaultScheme
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url must be an http(s) URL, got %q", c.APIBaseURL)
	}
	if c.TimeoutSeconds <= 0 || c.TimeoutSeconds > maxTimeoutSeconds {
		return fmt.Errorf("timeout_seconds must be between 1 and %d", maxTimeoutSeconds)
	}
	return validateLeaseMinutes("lease_minutes", c.LeaseMinutes)
}

func validateLeaseMinutes(name string, minutes int) error {
	if minutes < 0 || minutes > maxLeaseMinutes {
		return fmt.Errorf("%s must be between 0 and %d", name, maxLeaseMinutes)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

func expandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
