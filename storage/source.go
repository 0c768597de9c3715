package storage

import (
	"context"
	"path/filepath"
	"strings"

	"retail-analytics/config"
	"retail-analytics/utils"
)

// NewSource picks a backend for cfg.DataPath: PostgreSQL for a postgres URL
// or the literal "postgres", Excel for .xlsx/.xlsm, delimited text otherwise.
func NewSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (TransactionSource, error) {
	if cfg.UsesPostgres() {
		retry := utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   retryBaseDelay,
			Logger:      logger,
		}
		return NewPostgresSource(ctx, cfg.DSN(), cfg.PostgresTable, retry)
	}

	switch strings.ToLower(filepath.Ext(cfg.DataPath)) {
	case ".xlsx", ".xlsm":
		return NewXLSXSource(cfg.DataPath, cfg.Sheet), nil
	default:
		return NewCSVSource(cfg.DataPath), nil
	}
}
