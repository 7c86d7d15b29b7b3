package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subseek/internal/outcome"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show outcomes recorded by previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := outcome.Open(cfg.Paths.StateDir)
			if err != nil {
				return fmt.Errorf("open outcome store: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.History(context.Background(), limitFlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recorded outcomes yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				result := entry.ErrorKind
				rating := ""
				if entry.Succeeded {
					result = "downloaded"
					rating = strconv.FormatFloat(entry.Rating, 'f', 1, 64)
				}
				timestamp := ""
				if !entry.CreatedAt.IsZero() {
					timestamp = entry.CreatedAt.Local().Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{
					entry.Title,
					entry.MediaType,
					result,
					entry.Language,
					rating,
					timestamp,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Type", "Result", "Language", "Rating", "When"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum entries to show (0 = all)")
	return cmd
}
