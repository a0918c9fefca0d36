package scanner

import (
	"knaito/fleapriceworker/internal/models"
)

// ProductScanner is the contract for anything that can produce the current
// product set from the seller's listing page
type ProductScanner interface {
	// ScanProducts fetches the listing page and returns the normalized
	// product set. An unrecognized page yields an empty set, not an error.
	ScanProducts() ([]models.Product, error)
}

// Config contains configuration for a listing scanner
type Config struct {
	// ListingURL is the seller's listing page to scan
	ListingURL string

	// BaseURL resolves relative item links
	BaseURL string

	// CacheKey marks this scanner in the fetch-block cache
	CacheKey string

	// BlockTime is how long fetches stay blocked after the marketplace
	// rate-limits us
	BlockTime int
}
