package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Plex contains connection settings for the Plex server whose web interface
// is driven.
type Plex struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// Run contains settings for a download run.
type Run struct {
	Languages        []string `toml:"languages"`
	MaxDownloads     int      `toml:"max_downloads"`
	Workers          int      `toml:"workers"`
	ItemDelaySeconds int      `toml:"item_delay_seconds"`
}

// Browser contains settings for the automated browser session.
type Browser struct {
	Headless              bool `toml:"headless"`
	WindowWidth           int  `toml:"window_width"`
	WindowHeight          int  `toml:"window_height"`
	NavigationTimeoutSecs int  `toml:"navigation_timeout_seconds"`
	ElementTimeoutSecs    int  `toml:"element_timeout_seconds"`
	DownloadTimeoutSecs   int  `toml:"download_timeout_seconds"`
	EdgeRetries           int  `toml:"edge_retries"`
}

// Report contains settings for the rendered run report.
type Report struct {
	Path string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Config encapsulates all configuration values for subseek.
//
// Configuration sections by subsystem:
//   - Plex: server URL and access token
//   - Run: target languages, download cap, worker count, pacing
//   - Browser: headless mode, window size, timeouts, per-edge retries
//   - Report: report output location
//   - Logging: log level and format
//   - Paths: outcome database and log directories
type Config struct {
	Plex    Plex    `toml:"plex"`
	Run     Run     `toml:"run"`
	Browser Browser `toml:"browser"`
	Report  Report  `toml:"report"`
	Logging Logging `toml:"logging"`
	Paths   Paths   `toml:"paths"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/subseek/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subseek.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Validate checks the settings a download or scan run depends on. Kept
// separate from Load so commands that never touch the server (config init,
// config show) work without credentials.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Plex.URL) == "" {
		return errors.New("plex.url is required (or set PLEX_URL)")
	}
	if !strings.HasPrefix(c.Plex.URL, "http://") && !strings.HasPrefix(c.Plex.URL, "https://") {
		return fmt.Errorf("plex.url must be an http(s) URL, got %q", c.Plex.URL)
	}
	if strings.TrimSpace(c.Plex.Token) == "" {
		return errors.New("plex.token is required (or set PLEX_TOKEN)")
	}
	if len(c.Run.Languages) == 0 {
		return errors.New("run.languages must list at least one language code")
	}
	if c.Run.MaxDownloads < 0 {
		return fmt.Errorf("run.max_downloads must not be negative, got %d", c.Run.MaxDownloads)
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("run.workers must be at least 1, got %d", c.Run.Workers)
	}
	return nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns the cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
