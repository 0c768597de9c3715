package storage

import (
	"context"
	"strings"

	"retail-analytics/models"
)

// TransactionSource is the interface any input backend must satisfy.
type TransactionSource interface {
	Load(ctx context.Context) (*models.Table, error)
	Close() error
}

// IsPostgresLocation reports whether location names a PostgreSQL database.
func IsPostgresLocation(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// Summarize describes a freshly loaded table.
func Summarize(t *models.Table) *models.LoadSummary {
	return &models.LoadSummary{
		Source:        t.Source,
		Rows:          t.Len(),
		Columns:       len(t.ColumnNames()),
		MemoryUsageMB: t.MemoryUsageMB(),
		DateTyped:     t.DateTyped,
	}
}
