package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"subseek/internal/browser"
	"subseek/internal/catalog"
	"subseek/internal/config"
	"subseek/internal/logging"
	"subseek/internal/outcome"
	"subseek/internal/report"
	"subseek/internal/resolver"
	"subseek/internal/workflow"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		libraryFlag      string
		typeFlag         string
		maxDownloadsFlag int
		languagesFlag    []string
		headlessFlag     bool
		reportFlag       string
		workersFlag      int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download missing subtitles for library items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cfg, cmd, languagesFlag, maxDownloadsFlag, headlessFlag, workersFlag, reportFlag)
			if err := cfg.Validate(); err != nil {
				return err
			}
			mediaType, ok := catalog.ParseMediaType(typeFlag)
			if !ok {
				return fmt.Errorf("unknown media type %q (expected movie or episode)", typeFlag)
			}
			return runDownloads(cmd, cfg, libraryFlag, mediaType)
		},
	}

	cmd.Flags().StringVar(&libraryFlag, "library", "", "Library section to scan (all libraries when empty)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Restrict to a media type: movie or episode")
	cmd.Flags().IntVar(&maxDownloadsFlag, "max-downloads", 0, "Stop after this many successful downloads (0 = unlimited)")
	cmd.Flags().StringSliceVar(&languagesFlag, "languages", nil, "Subtitle languages in priority order (ISO codes)")
	cmd.Flags().BoolVar(&headlessFlag, "headless", true, "Run the browser headless")
	cmd.Flags().StringVar(&reportFlag, "report", "", "Report output path")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent browser sessions")

	return cmd
}

func applyRunFlags(cfg *config.Config, cmd *cobra.Command, languages []string, maxDownloads int, headless bool, workers int, reportPath string) {
	if cmd.Flags().Changed("languages") {
		cfg.Run.Languages = languages
	}
	if cmd.Flags().Changed("max-downloads") {
		cfg.Run.MaxDownloads = maxDownloads
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if cmd.Flags().Changed("workers") && workers > 0 {
		cfg.Run.Workers = workers
	}
	if cmd.Flags().Changed("report") {
		cfg.Report.Path = reportPath
	}
}

func runDownloads(cmd *cobra.Command, cfg *config.Config, library string, mediaType catalog.MediaType) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "subseek.log")},
	})
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	lock, err := outcome.AcquireRunLock(cfg.Paths.StateDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	store, err := outcome.Open(cfg.Paths.StateDir)
	if err != nil {
		return fmt.Errorf("open outcome store: %w", err)
	}
	defer func() { _ = store.Close() }()

	client := catalog.NewClient(cfg.Plex.URL, cfg.Plex.Token, &http.Client{Timeout: 30 * time.Second})
	identity, err := client.ServerIdentity(ctx)
	if err != nil {
		return fmt.Errorf("connect to plex server: %w", err)
	}
	logger.Info("connected to plex server",
		logging.String("server", identity.FriendlyName),
		logging.String("languages", strings.Join(cfg.Run.Languages, ",")))

	items, err := client.ListItemsMissingSubtitles(ctx, library, mediaType, cfg.Run.Languages)
	if err != nil {
		return fmt.Errorf("scan library: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No items are missing subtitles.")
		return nil
	}
	logger.Info("items missing subtitles", logging.Int("count", len(items)))

	res, err := resolver.New(resolver.DefaultRoles(), resolver.Options{Logger: logger})
	if err != nil {
		return err
	}

	workers := cfg.Run.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	workflows, closeSessions, err := openWorkflows(ctx, cfg, logger, res, workers)
	defer closeSessions()

	coordinator := workflow.NewCoordinator(workflow.CoordinatorOptions{
		Store:        store,
		Logger:       logger,
		MaxDownloads: cfg.Run.MaxDownloads,
		ItemDelay:    time.Duration(cfg.Run.ItemDelaySeconds) * time.Second,
	})

	var (
		log    *outcome.Log
		runErr error
	)
	if err != nil {
		// Fatal init failure: emit the (empty) report before surfacing it.
		log, runErr = outcome.NewLog(), err
	} else {
		log, runErr = coordinator.Run(ctx, workflows, items)
	}

	text := report.Render(log, time.Now())
	fmt.Fprintln(cmd.OutOrStdout(), text)
	if writeErr := os.WriteFile(cfg.Report.Path, []byte(text), 0o644); writeErr != nil {
		logger.Warn("failed to write report file",
			logging.String("path", cfg.Report.Path),
			logging.Error(writeErr))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport saved to: %s\n", cfg.Report.Path)
	}

	return runErr
}

// openWorkflows starts one authenticated browser session per worker and
// wraps each in an item workflow. The returned cleanup closes every
// session that was opened, including on partial failure.
func openWorkflows(ctx context.Context, cfg *config.Config, logger *slog.Logger, res *resolver.Resolver, workers int) ([]*workflow.ItemWorkflow, func(), error) {
	sessions := make([]*browser.ChromeSession, 0, workers)
	closeAll := func() {
		for _, sess := range sessions {
			_ = sess.Close()
		}
	}

	navTimeout := time.Duration(cfg.Browser.NavigationTimeoutSecs) * time.Second
	confirmLogin := func(ctx context.Context, s browser.Session) error {
		_, err := res.Resolve(ctx, s, resolver.RolePostLoginMarker, navTimeout)
		return err
	}

	workflows := make([]*workflow.ItemWorkflow, 0, workers)
	for i := 0; i < workers; i++ {
		sess, err := browser.Open(ctx, browser.Options{
			Headless:          cfg.Browser.Headless,
			WindowWidth:       cfg.Browser.WindowWidth,
			WindowHeight:      cfg.Browser.WindowHeight,
			NavigationTimeout: navTimeout,
			OperationTimeout:  time.Duration(cfg.Browser.ElementTimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, closeAll, err
		}
		sessions = append(sessions, sess)

		if err := browser.Authenticate(ctx, sess, cfg.Plex.URL, cfg.Plex.Token, confirmLogin); err != nil {
			return nil, closeAll, err
		}

		workflows = append(workflows, workflow.NewItemWorkflow(workflow.ItemConfig{
			Session:   sess,
			Resolver:  res,
			Logger:    logger,
			Languages: cfg.Run.Languages,
			Retry: workflow.RetryPolicy{
				MaxAttempts:       cfg.Browser.EdgeRetries,
				PerAttemptTimeout: time.Duration(cfg.Browser.ElementTimeoutSecs+5) * time.Second,
			},
			ElementTimeout:  time.Duration(cfg.Browser.ElementTimeoutSecs) * time.Second,
			DownloadTimeout: time.Duration(cfg.Browser.DownloadTimeoutSecs) * time.Second,
		}))
	}
	logger.Info("browser sessions ready")
	return workflows, closeAll, nil
}
