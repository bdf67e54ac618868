package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"diana/internal/store"
)

func newWorklistCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "worklist",
		Short: "List the collected destination index",
		Long: `Worklist walks the destination tree and emits one sharded relative path
per collected payload. The entries are hashed destination keys for auditing
and transfer tooling, not accession numbers, so the output cannot be replayed
through collect --worklist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			files := store.NewDcmDir(cfg.ImagesDir(), logger).Index()

			if strings.TrimSpace(outPath) != "" {
				content := strings.Join(files, "\n")
				if len(files) > 0 {
					content += "\n"
				}
				if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
					return fmt.Errorf("write worklist: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(files), outPath)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, file := range files {
				fmt.Fprintln(out, file)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the worklist to a file instead of stdout")
	return cmd
}
