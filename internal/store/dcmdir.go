package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"diana/internal/dixel"
	"diana/internal/logging"
)

// DcmDir stores raw DICOM payloads under a sharded directory tree.
type DcmDir struct {
	Root         string
	SubpathWidth int
	SubpathDepth int
	logger       *slog.Logger
}

// NewDcmDir constructs a raw file store with the conventional 2x2 sharding.
func NewDcmDir(root string, logger *slog.Logger) *DcmDir {
	return &DcmDir{
		Root:         root,
		SubpathWidth: 2,
		SubpathDepth: 2,
		logger:       logging.WithComponent(logger, "dcmdir"),
	}
}

func (d *DcmDir) path(item *dixel.Dixel) string {
	return shardedPath(d.Root, item.Filename(), d.SubpathWidth, d.SubpathDepth)
}

// Exists reports whether the study is already materialized in the store.
func (d *DcmDir) Exists(item *dixel.Dixel) bool {
	info, err := os.Stat(d.path(item))
	return err == nil && !info.IsDir()
}

// Put writes the study payload to its destination key.
func (d *DcmDir) Put(item *dixel.Dixel) error {
	if len(item.File) == 0 {
		return fmt.Errorf("dcmdir: %s has no file payload to save", item.Accession())
	}
	target := d.path(item)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("dcmdir: create shard directory: %w", err)
	}
	if err := os.WriteFile(target, item.File, 0o644); err != nil {
		return fmt.Errorf("dcmdir: write %s: %w", target, err)
	}
	d.logger.Debug("stored payload", logging.String("path", target), logging.Int("bytes", len(item.File)))
	return nil
}

// Get reads a previously stored payload back into a fresh Dixel.
func (d *DcmDir) Get(item *dixel.Dixel) (*dixel.Dixel, error) {
	path := d.path(item)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dcmdir: %s: %w", item.Accession(), fs.ErrNotExist)
		}
		return nil, fmt.Errorf("dcmdir: read %s: %w", path, err)
	}
	out := dixel.New(item.Accession())
	out.File = data
	return out, nil
}

// Delete removes a stored payload by its destination key.
func (d *DcmDir) Delete(item *dixel.Dixel) error {
	if err := os.Remove(d.path(item)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("dcmdir: delete %s: %w", item.Accession(), err)
	}
	return nil
}

// Index walks the store and returns the relative paths of every regular file.
// Unreadable entries are logged and skipped so one bad file never aborts an
// index pass.
func (d *DcmDir) Index() []string {
	var files []string
	_ = filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(err))
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(d.Root, path)
		if relErr != nil {
			d.logger.Warn("skipping entry outside root", logging.String("path", path), logging.Error(relErr))
			return nil
		}
		files = append(files, rel)
		return nil
	})
	return files
}
