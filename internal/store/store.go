package store

import (
	"path/filepath"

	"diana/internal/dixel"
)

// Destination is a local store the collector can probe and write.
type Destination interface {
	Exists(item *dixel.Dixel) bool
	Put(item *dixel.Dixel) error
}

// shardedPath splits a filename into width-sized prefix directories, depth
// levels deep: ("abcd1234.dcm", 2, 2) -> ab/cd/abcd1234.dcm.
func shardedPath(root, filename string, width, depth int) string {
	if width <= 0 || depth <= 0 {
		return filepath.Join(root, filename)
	}
	parts := make([]string, 0, depth+2)
	parts = append(parts, root)
	for i := 0; i < depth; i++ {
		start := i * width
		end := start + width
		if end > len(filename) {
			break
		}
		parts = append(parts, filename[start:end])
	}
	parts = append(parts, filename)
	return filepath.Join(parts...)
}
