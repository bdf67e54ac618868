package source

import (
	"context"

	"diana/internal/dixel"
)

// Source is the remote collaborator the item handler drives. Implementations
// must be safe to Clone so each pooled worker can hold an independent session.
type Source interface {
	// Find resolves studies matching the query. When retrieve is true the
	// proxy is also asked to stage matching payloads from upstream.
	Find(ctx context.Context, query map[string]string, retrieve bool) ([]map[string]string, error)
	// Exists reports whether the proxy has the study materialized.
	Exists(ctx context.Context, item *dixel.Dixel) (bool, error)
	// Anonymize returns a de-identified copy of the study. When remove is
	// true the original is deleted from the proxy after anonymization.
	Anonymize(ctx context.Context, item *dixel.Dixel, remove bool) (*dixel.Dixel, error)
	// Get retrieves the study at the requested view.
	Get(ctx context.Context, item *dixel.Dixel, view dixel.View) (*dixel.Dixel, error)
	// Delete removes the study from the proxy.
	Delete(ctx context.Context, item *dixel.Dixel) error
	// Clone returns an independent session with the same endpoint
	// configuration, never a shared live connection.
	Clone() Source
}
