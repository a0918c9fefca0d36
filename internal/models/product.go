package models

import "time"

// Product represents one listing extracted from the seller's page.
// Identity is the marketplace item id when extractable, otherwise a synthetic
// temp id. Records are ephemeral per scan and persisted only as a flat list.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	URL       string `json:"url"`
	ProductID string `json:"productId"`
}

// Valid price band for extracted listings. Anything outside is treated as a
// mis-parse (point counts, follower counts, item numbers) and rejected.
const (
	MinValidPrice = 100
	MaxValidPrice = 999999
)

// PriceInBand reports whether price is within the valid listing price band
func PriceInBand(price int) bool {
	return price >= MinValidPrice && price <= MaxValidPrice
}

// Settings is the flat settings record kept in the store
type Settings struct {
	IsEnabled bool   `json:"isEnabled"`
	MinPrice  int    `json:"minPrice"`
	Reduction int    `json:"reduction"`
	StartTime string `json:"startTime"` // "HH:MM"
	EndTime   string `json:"endTime"`   // "HH:MM"
}

// DefaultSettings returns the settings written on first run
func DefaultSettings() Settings {
	return Settings{
		IsEnabled: false,
		MinPrice:  300,
		Reduction: 100,
		StartTime: "09:00",
		EndTime:   "21:00",
	}
}

// Log entry types
const (
	LogTypeInfo    = "info"
	LogTypeSuccess = "success"
	LogTypeError   = "error"
)

// LogEntry is one line of the capped execution log, never mutated after creation
type LogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	ProductName string    `json:"productName,omitempty"`
	OldPrice    int       `json:"oldPrice,omitempty"`
	NewPrice    int       `json:"newPrice,omitempty"`
}

// MaxLogEntries caps the execution log, newest first
const MaxLogEntries = 100
