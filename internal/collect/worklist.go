package collect

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Worklist supplies accession identifiers left-to-right. Implementations are
// consumed by a single goroutine; the collector never rewinds.
type Worklist interface {
	Next() (string, bool)
}

// SliceWorklist is a Worklist over an in-memory list of accessions.
type SliceWorklist struct {
	items []string
	pos   int
}

// NewSliceWorklist wraps accessions in a Worklist.
func NewSliceWorklist(items []string) *SliceWorklist {
	return &SliceWorklist{items: items}
}

// Next returns the next accession, skipping blank entries.
func (w *SliceWorklist) Next() (string, bool) {
	for w.pos < len(w.items) {
		item := strings.TrimSpace(w.items[w.pos])
		w.pos++
		if item != "" {
			return item, true
		}
	}
	return "", false
}

// Len reports the number of entries, blank lines included.
func (w *SliceWorklist) Len() int { return len(w.items) }

// WorklistFromFile reads a newline-delimited accession list.
func WorklistFromFile(path string) (*SliceWorklist, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open worklist: %w", err)
	}
	defer file.Close()

	var items []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		items = append(items, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read worklist: %w", err)
	}
	return NewSliceWorklist(items), nil
}

// take pulls up to n accessions off the worklist.
func take(w Worklist, n int) []string {
	if n <= 0 {
		return nil
	}
	items := make([]string, 0, n)
	for len(items) < n {
		item, ok := w.Next()
		if !ok {
			break
		}
		items = append(items, item)
	}
	return items
}
