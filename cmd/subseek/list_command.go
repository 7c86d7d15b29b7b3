package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"subseek/internal/catalog"
	"subseek/internal/language"
)

func newListMissingCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		libraryFlag   string
		typeFlag      string
		languagesFlag []string
	)

	cmd := &cobra.Command{
		Use:   "list-missing",
		Short: "List library items missing subtitles without downloading",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("languages") {
				cfg.Run.Languages = languagesFlag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			mediaType, ok := catalog.ParseMediaType(typeFlag)
			if !ok {
				return fmt.Errorf("unknown media type %q (expected movie or episode)", typeFlag)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := catalog.NewClient(cfg.Plex.URL, cfg.Plex.Token, &http.Client{Timeout: 30 * time.Second})
			items, err := client.ListItemsMissingSubtitles(ctx, libraryFlag, mediaType, cfg.Run.Languages)
			if err != nil {
				return fmt.Errorf("scan library: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No items are missing subtitles.")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				missing := make([]string, 0, len(item.MissingLanguages))
				for _, code := range item.MissingLanguages {
					missing = append(missing, language.DisplayName(code))
				}
				rows = append(rows, []string{
					item.Title,
					string(item.MediaType),
					strings.Join(missing, ", "),
					item.DetailURL,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Type", "Missing Languages", "URL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
			fmt.Fprintf(out, "Total items missing subtitles: %d\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&libraryFlag, "library", "", "Library section to scan (all libraries when empty)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Restrict to a media type: movie or episode")
	cmd.Flags().StringSliceVar(&languagesFlag, "languages", nil, "Subtitle languages to check for (ISO codes)")

	return cmd
}
