package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"diana/internal/dixel"
	"diana/internal/logging"
)

// ReportDir stores study report text alongside the image destinations.
type ReportDir struct {
	Root         string
	SubpathWidth int
	SubpathDepth int
	Anonymizing  bool
	logger       *slog.Logger
}

// NewReportDir constructs a report store with the conventional 2x2 sharding.
func NewReportDir(root string, anonymizing bool, logger *slog.Logger) *ReportDir {
	return &ReportDir{
		Root:         root,
		SubpathWidth: 2,
		SubpathDepth: 2,
		Anonymizing:  anonymizing,
		logger:       logging.WithComponent(logger, "reportdir"),
	}
}

func (d *ReportDir) filename(item *dixel.Dixel) string {
	if d.Anonymizing {
		return item.ShamID() + ".txt"
	}
	base := strings.TrimSuffix(item.Filename(), filepath.Ext(item.Filename()))
	return base + ".txt"
}

func (d *ReportDir) path(item *dixel.Dixel) string {
	return shardedPath(d.Root, d.filename(item), d.SubpathWidth, d.SubpathDepth)
}

// Exists reports whether the study's report is already stored.
func (d *ReportDir) Exists(item *dixel.Dixel) bool {
	info, err := os.Stat(d.path(item))
	return err == nil && !info.IsDir()
}

// Put writes the study's report text. Studies without a report are a no-op:
// report persistence must never abort an item.
func (d *ReportDir) Put(item *dixel.Dixel) error {
	if item.Report == nil || strings.TrimSpace(item.Report.Text) == "" {
		d.logger.Debug("no report to store", logging.String("accession", item.Accession()))
		return nil
	}
	target := d.path(item)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("reportdir: create shard directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(item.Report.Text), 0o644); err != nil {
		return fmt.Errorf("reportdir: write %s: %w", target, err)
	}
	return nil
}
