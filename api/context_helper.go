package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// ExportTimeout bounds the queries behind a spreadsheet export
const ExportTimeout = 25 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(parent, QueryTimeout)
}

// WithExportTimeout creates a context for export queries, which may scan a whole year
func WithExportTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(parent, ExportTimeout)
}

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, d)
}
