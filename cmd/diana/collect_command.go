package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"diana/internal/collect"
	"diana/internal/ledger"
	"diana/internal/source"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var worklistPath string
	var pool int
	var delay float64
	var anonymize bool
	var saveAsImages bool
	var inlineReports bool
	var retryFailed bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the studies named in a worklist",
		Long: `Collect resolves each accession in the worklist against the configured
proxy, stages and fetches the study, and persists it into the destination
tree. Already-collected studies are skipped. With --retry-failed the
worklist is replayed from the retry ledger instead of a file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Flags override configuration only when set explicitly.
			if cmd.Flags().Changed("pool") {
				cfg.Collector.PoolSize = pool
			}
			if cmd.Flags().Changed("delay") {
				cfg.Collector.DelaySeconds = delay
			}
			if cmd.Flags().Changed("anonymize") {
				cfg.Collector.Anonymize = anonymize
			}
			if cmd.Flags().Changed("save-as-im") {
				cfg.Collector.SaveAsImages = saveAsImages
			}
			if cmd.Flags().Changed("inline-reports") {
				cfg.Collector.InlineReports = inlineReports
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var opts []collect.Option
			var worklist *collect.SliceWorklist
			if retryFailed {
				retries, err := ledger.Open(cfg)
				if err != nil {
					return err
				}
				defer retries.Close()

				accessions, err := retries.Accessions(cmd.Context())
				if err != nil {
					return err
				}
				if len(accessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No failed items to retry")
					return nil
				}
				// Clear before the replay so the ledger ends up holding only
				// the failures of this run.
				if _, err := retries.Clear(cmd.Context()); err != nil {
					return err
				}
				worklist = collect.NewSliceWorklist(accessions)
				opts = append(opts, collect.WithLedger(retries))
			} else {
				if strings.TrimSpace(worklistPath) == "" {
					return errors.New("a worklist file is required (or use --retry-failed)")
				}
				worklist, err = collect.WorklistFromFile(worklistPath)
				if err != nil {
					return err
				}
			}

			collector := collect.New(cfg, logger, opts...)
			summary, runErr := collector.Run(cmd.Context(), worklist, source.NewOrthanc(cfg))

			printSummary(cmd.OutOrStdout(), summary)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&worklistPath, "worklist", "w", "", "Newline-delimited accession list")
	cmd.Flags().IntVar(&pool, "pool", 0, "Worker pool size (0 runs serially)")
	cmd.Flags().Float64Var(&delay, "delay", 0, "Seconds to pause between dispatched slices")
	cmd.Flags().BoolVar(&anonymize, "anonymize", false, "Anonymize studies at the proxy before fetching")
	cmd.Flags().BoolVar(&saveAsImages, "save-as-im", false, "Store rendered images instead of raw files")
	cmd.Flags().BoolVar(&inlineReports, "inline-reports", false, "Skip the standalone report store")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "Replay the retry ledger as the worklist")

	return cmd
}

func printSummary(out io.Writer, summary collect.Summary) {
	seconds := int64(summary.Elapsed.Seconds())
	if isTerminal(out) {
		rows := [][]string{
			{"Handled", strconv.FormatInt(summary.Handled, 10)},
			{"Skipped", strconv.FormatInt(summary.Skipped, 10)},
			{"Failed", strconv.FormatInt(summary.Failed, 10)},
			{"Elapsed (s)", strconv.FormatInt(seconds, 10)},
			{"Rate (obj/s)", fmt.Sprintf("%.2f", summary.Rate)},
		}
		fmt.Fprintln(out, renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
		return
	}
	fmt.Fprintf(out, "Handled %d objects in %d seconds\n", summary.Handled, seconds)
	fmt.Fprintf(out, "Handling rate: %.2f objects per second\n", summary.Rate)
	fmt.Fprintf(out, "Skipped %d objects\n", summary.Skipped)
	fmt.Fprintf(out, "Failed %d objects\n", summary.Failed)
}
