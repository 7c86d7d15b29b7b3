package config

const (
	defaultPlexURL               = "http://localhost:32400"
	defaultStateDir              = "~/.local/share/subseek"
	defaultLogDir                = "~/.local/share/subseek/logs"
	defaultReportPath            = "subtitle_download_report.txt"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultWindowWidth           = 1920
	defaultWindowHeight          = 1080
	defaultNavigationTimeoutSecs = 30
	defaultElementTimeoutSecs    = 5
	defaultDownloadTimeoutSecs   = 15
	defaultEdgeRetries           = 2
	defaultItemDelaySeconds      = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Plex: Plex{
			URL: defaultPlexURL,
		},
		Run: Run{
			Languages:        []string{"en"},
			Workers:          1,
			ItemDelaySeconds: defaultItemDelaySeconds,
		},
		Browser: Browser{
			Headless:              false,
			WindowWidth:           defaultWindowWidth,
			WindowHeight:          defaultWindowHeight,
			NavigationTimeoutSecs: defaultNavigationTimeoutSecs,
			ElementTimeoutSecs:    defaultElementTimeoutSecs,
			DownloadTimeoutSecs:   defaultDownloadTimeoutSecs,
			EdgeRetries:           defaultEdgeRetries,
		},
		Report: Report{
			Path: defaultReportPath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
	}
}
