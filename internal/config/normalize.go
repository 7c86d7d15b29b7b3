package config

import (
	"fmt"
	"os"
	"strings"

	"subseek/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlex()
	c.normalizeRun()
	c.normalizeBrowser()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePlex() {
	if strings.TrimSpace(c.Plex.URL) == "" || c.Plex.URL == defaultPlexURL {
		if value, ok := os.LookupEnv("PLEX_URL"); ok && strings.TrimSpace(value) != "" {
			c.Plex.URL = value
		}
	}
	if strings.TrimSpace(c.Plex.Token) == "" {
		if value, ok := os.LookupEnv("PLEX_TOKEN"); ok {
			c.Plex.Token = value
		}
	}
	c.Plex.URL = strings.TrimRight(strings.TrimSpace(c.Plex.URL), "/")
	c.Plex.Token = strings.TrimSpace(c.Plex.Token)
}

func (c *Config) normalizeRun() {
	if len(c.Run.Languages) == 0 {
		if value, ok := os.LookupEnv("SUBTITLE_LANGUAGES"); ok && strings.TrimSpace(value) != "" {
			c.Run.Languages = strings.Split(value, ",")
		}
	}
	c.Run.Languages = language.NormalizeList(c.Run.Languages)
	if len(c.Run.Languages) == 0 {
		c.Run.Languages = []string{"en"}
	}
	if c.Run.Workers < 1 {
		c.Run.Workers = 1
	}
	if c.Run.MaxDownloads < 0 {
		c.Run.MaxDownloads = 0
	}
	if c.Run.ItemDelaySeconds < 0 {
		c.Run.ItemDelaySeconds = 0
	}
}

func (c *Config) normalizeBrowser() {
	if c.Browser.WindowWidth <= 0 {
		c.Browser.WindowWidth = defaultWindowWidth
	}
	if c.Browser.WindowHeight <= 0 {
		c.Browser.WindowHeight = defaultWindowHeight
	}
	if c.Browser.NavigationTimeoutSecs <= 0 {
		c.Browser.NavigationTimeoutSecs = defaultNavigationTimeoutSecs
	}
	if c.Browser.ElementTimeoutSecs <= 0 {
		c.Browser.ElementTimeoutSecs = defaultElementTimeoutSecs
	}
	if c.Browser.DownloadTimeoutSecs <= 0 {
		c.Browser.DownloadTimeoutSecs = defaultDownloadTimeoutSecs
	}
	if c.Browser.EdgeRetries < 1 {
		c.Browser.EdgeRetries = defaultEdgeRetries
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Report.Path) == "" {
		c.Report.Path = defaultReportPath
	}
}
