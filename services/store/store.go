package store

import (
	"context"

	"knaito/fleapriceworker/internal/models"
)

// Store persists the flat key-value schema shared by the control API and the
// daily scheduler: settings, the known/selected product lists, and the capped
// execution log. Each operation is atomic at the single-key level only; there
// are no cross-key transactions.
type Store interface {
	// GetSettings returns the stored settings, falling back to defaults for
	// keys never written
	GetSettings(ctx context.Context) (models.Settings, error)

	// SaveSettings writes the settings record
	SaveSettings(ctx context.Context, s models.Settings) error

	// GetProducts returns the currently known product list
	GetProducts(ctx context.Context) ([]models.Product, error)

	// SaveProducts replaces the currently known product list
	SaveProducts(ctx context.Context, products []models.Product) error

	// GetSelectedProducts returns the products selected for adjustment
	GetSelectedProducts(ctx context.Context) ([]models.Product, error)

	// SaveSelectedProducts replaces the selected product list
	SaveSelectedProducts(ctx context.Context, products []models.Product) error

	// AppendLogs prepends entries to the execution log, newest first,
	// trimming to models.MaxLogEntries
	AppendLogs(ctx context.Context, entries []models.LogEntry) error

	// GetLogs returns the execution log, newest first
	GetLogs(ctx context.Context) ([]models.LogEntry, error)

	// ClearLogs empties the execution log
	ClearLogs(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
