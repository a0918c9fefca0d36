package adjuster

import (
	"fmt"
	"time"

	"knaito/fleapriceworker/internal/models"
)

// Status is the terminal state of one product within a batch
type Status string

const (
	// StatusApplied means the new price was applied
	StatusApplied Status = "applied"
	// StatusSkippedFloor means the reduction would undercut the floor price
	StatusSkippedFloor Status = "skipped-floor"
	// StatusFailed means the application attempt failed
	StatusFailed Status = "failed"
)

// Result records exactly one terminal outcome per product per batch.
// Never mutated after creation.
type Result struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Success  bool   `json:"success"`
	Status   Status `json:"status"`
	OldPrice int    `json:"oldPrice,omitempty"`
	NewPrice int    `json:"newPrice,omitempty"`
	Message  string `json:"message"`
}

// Summary aggregates a batch. Total always equals Success + Failed.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// BatchResult is the outcome of one adjustment batch. Success reflects only
// that orchestration completed without a thrown error, independent of
// individual item outcomes.
type BatchResult struct {
	BatchID string   `json:"batchId"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}

// LogEntries converts the batch into execution-log entries, one per product
func (b BatchResult) LogEntries() []models.LogEntry {
	entries := make([]models.LogEntry, 0, len(b.Results))
	for _, r := range b.Results {
		entry := models.LogEntry{
			Timestamp:   time.Now(),
			Type:        models.LogTypeError,
			Message:     r.Message,
			ProductName: r.Name,
		}
		if r.Success {
			entry.Type = models.LogTypeSuccess
			entry.OldPrice = r.OldPrice
			entry.NewPrice = r.NewPrice
		}
		entries = append(entries, entry)
	}
	return entries
}

// SummaryMessage renders a one-line human-readable batch summary
func (b BatchResult) SummaryMessage() string {
	if !b.Success {
		return fmt.Sprintf("価格調整エラー: %s (成功 %d件、失敗 %d件)", b.Error, b.Summary.Success, b.Summary.Failed)
	}
	return fmt.Sprintf("価格調整完了: 成功 %d件、失敗 %d件", b.Summary.Success, b.Summary.Failed)
}
