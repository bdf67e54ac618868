package keymap

import "context"

// Columns is the fixed key map schema, in output order. The first column
// holds the row key.
var Columns = []string{"id", "modality", "body_part", "cpts", "age", "sex", "status", "radcat"}

// Row is one key emission: a row key plus named attribute fields.
type Row struct {
	ID     string
	Fields map[string]string
}

// Sink accepts key rows for durable storage. Implementations must upsert:
// a later row with the same ID replaces the stored one.
type Sink interface {
	Put(ctx context.Context, row Row) error
}
