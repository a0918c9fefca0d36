package store

import (
	"context"
	"sync"

	"knaito/fleapriceworker/internal/models"
)

// MemoryStore is an in-memory Store used by tests and simulation runs where
// no Redis is available. Semantics match RedisStore, including the log cap.
type MemoryStore struct {
	mu       sync.RWMutex
	settings *models.Settings
	products []models.Product
	selected []models.Product
	logs     []models.LogEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// GetSettings returns the stored settings or defaults
func (s *MemoryStore) GetSettings(ctx context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return models.DefaultSettings(), nil
	}
	return *s.settings, nil
}

// SaveSettings writes the settings record
func (s *MemoryStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

// GetProducts returns the currently known product list
func (s *MemoryStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.products...), nil
}

// SaveProducts replaces the currently known product list
func (s *MemoryStore) SaveProducts(ctx context.Context, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]models.Product(nil), products...)
	return nil
}

// GetSelectedProducts returns the products selected for adjustment
func (s *MemoryStore) GetSelectedProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.selected...), nil
}

// SaveSelectedProducts replaces the selected product list
func (s *MemoryStore) SaveSelectedProducts(ctx context.Context, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append([]models.Product(nil), products...)
	return nil
}

// AppendLogs prepends entries newest-first and trims to the cap
func (s *MemoryStore) AppendLogs(ctx context.Context, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.logs = append([]models.LogEntry{entry}, s.logs...)
	}
	if len(s.logs) > models.MaxLogEntries {
		s.logs = s.logs[:models.MaxLogEntries]
	}
	return nil
}

// GetLogs returns the execution log, newest first
func (s *MemoryStore) GetLogs(ctx context.Context) ([]models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LogEntry(nil), s.logs...), nil
}

// ClearLogs empties the execution log
func (s *MemoryStore) ClearLogs(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = nil
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
