package keymap

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CSVMap is a keyed tabular store backed by a single CSV file. Rows are held
// in memory keyed by ID; every Put rewrites the file through a temp-and-rename
// so readers never observe a partial write.
type CSVMap struct {
	mu      sync.Mutex
	path    string
	columns []string
	rows    map[string]Row
	order   []string
}

// OpenCSVMap opens or creates the keyed CSV store at path. An existing file
// must carry the expected column header; its rows seed the map so upserts
// survive across runs.
func OpenCSVMap(path string, columns []string) (*CSVMap, error) {
	if len(columns) == 0 {
		return nil, errors.New("keymap: columns must not be empty")
	}
	m := &CSVMap{
		path:    path,
		columns: append([]string{}, columns...),
		rows:    make(map[string]Row),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Put upserts a row and persists the store.
func (m *CSVMap) Put(_ context.Context, row Row) error {
	if row.ID == "" {
		return errors.New("keymap: row id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rows[row.ID]; !exists {
		m.order = append(m.order, row.ID)
	}
	m.rows[row.ID] = row
	return m.writeLocked()
}

// Get returns the stored row for a key.
func (m *CSVMap) Get(id string) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	return row, ok
}

// Len reports the number of stored rows.
func (m *CSVMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Path returns the backing file location.
func (m *CSVMap) Path() string { return m.path }

func (m *CSVMap) load() error {
	file, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open key map: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read key map: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	header := records[0]
	if len(header) != len(m.columns) {
		return fmt.Errorf("key map %s has %d columns, expected %d", m.path, len(header), len(m.columns))
	}
	for i, name := range m.columns {
		if header[i] != name {
			return fmt.Errorf("key map %s column %d is %q, expected %q", m.path, i, header[i], name)
		}
	}

	for _, record := range records[1:] {
		if len(record) == 0 || record[0] == "" {
			continue
		}
		row := Row{ID: record[0], Fields: make(map[string]string, len(m.columns)-1)}
		for i := 1; i < len(m.columns) && i < len(record); i++ {
			row.Fields[m.columns[i]] = record[i]
		}
		if _, exists := m.rows[row.ID]; !exists {
			m.order = append(m.order, row.ID)
		}
		m.rows[row.ID] = row
	}
	return nil
}

func (m *CSVMap) writeLocked() error {
	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create key map directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".keymap-*")
	if err != nil {
		return fmt.Errorf("create key map temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(m.columns); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write key map header: %w", err)
	}
	record := make([]string, len(m.columns))
	for _, id := range m.order {
		row := m.rows[id]
		record[0] = row.ID
		for i := 1; i < len(m.columns); i++ {
			record[i] = row.Fields[m.columns[i]]
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write key map row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush key map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close key map temp file: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace key map: %w", err)
	}
	return nil
}
