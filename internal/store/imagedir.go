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

// ImageDir stores derived-image renderings of studies. Image derivation is
// itself treated as a de-identification step, so when Anonymizing is set the
// destination key comes from the sham identifier rather than the raw one.
type ImageDir struct {
	Root         string
	SubpathWidth int
	SubpathDepth int
	Anonymizing  bool
	logger       *slog.Logger
}

// NewImageDir constructs a derived-image store with the conventional 2x2 sharding.
func NewImageDir(root string, anonymizing bool, logger *slog.Logger) *ImageDir {
	return &ImageDir{
		Root:         root,
		SubpathWidth: 2,
		SubpathDepth: 2,
		Anonymizing:  anonymizing,
		logger:       logging.WithComponent(logger, "imagedir"),
	}
}

func (d *ImageDir) filename(item *dixel.Dixel) string {
	if d.Anonymizing {
		return item.ShamID() + ".png"
	}
	base := strings.TrimSuffix(item.Filename(), filepath.Ext(item.Filename()))
	return base + ".png"
}

func (d *ImageDir) path(item *dixel.Dixel) string {
	return shardedPath(d.Root, d.filename(item), d.SubpathWidth, d.SubpathDepth)
}

// Exists reports whether a derived image for the study is already stored.
func (d *ImageDir) Exists(item *dixel.Dixel) bool {
	info, err := os.Stat(d.path(item))
	return err == nil && !info.IsDir()
}

// Put writes the rendered payload to its destination key. The proxy renders
// studies server-side, so the payload arrives already image-encoded.
func (d *ImageDir) Put(item *dixel.Dixel) error {
	if len(item.File) == 0 {
		return fmt.Errorf("imagedir: %s has no rendering to save", item.Accession())
	}
	target := d.path(item)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("imagedir: create shard directory: %w", err)
	}
	if err := os.WriteFile(target, item.File, 0o644); err != nil {
		return fmt.Errorf("imagedir: write %s: %w", target, err)
	}
	d.logger.Debug("stored rendering", logging.String("path", target), logging.Int("bytes", len(item.File)))
	return nil
}
