package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"diana/internal/ledger"
)

func newRetriesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retries",
		Short: "Inspect the retry ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			retries, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer retries.Close()

			entries, err := retries.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Retry ledger is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				recorded := ""
				if !entry.CreatedAt.IsZero() {
					recorded = entry.CreatedAt.UTC().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					entry.Accession,
					entry.Stage,
					entry.Reason,
					recorded,
				})
			}

			headers := []string{"ID", "Accession", "Stage", "Reason", "Recorded"}
			if isTerminal(out) {
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
			} else {
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(newRetriesClearCommand(ctx))
	return cmd
}

func newRetriesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all recorded failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			retries, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer retries.Close()

			count, err := retries.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d retry items\n", count)
			return nil
		},
	}
}
