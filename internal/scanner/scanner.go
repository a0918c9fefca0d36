package scanner

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"knaito/fleapriceworker/helpers"
	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/logger"
	"knaito/fleapriceworker/services/cache"
)

// Scanner runs one pass of the selector cascade, field extractor and
// normalizer over the seller's listing page
type Scanner struct {
	listingURL string
	cacheKey   string
	cacheSvc   cache.CacheService
	blockTime  time.Duration
	extractor  *FieldExtractor
	log        *logger.Logger
}

var _ ProductScanner = (*Scanner)(nil)

// NewScanner creates a scanner for the configured listing page
func NewScanner(config Config, cacheSvc cache.CacheService) *Scanner {
	return &Scanner{
		listingURL: config.ListingURL,
		cacheKey:   config.CacheKey,
		cacheSvc:   cacheSvc,
		blockTime:  time.Duration(config.BlockTime) * time.Second,
		extractor:  &FieldExtractor{BaseURL: config.BaseURL},
		log:        logger.ForScanner(),
	}
}

// ScanProducts fetches the listing page and returns the normalized product
// set. A page that is not recognizable as a listing page yields an empty set.
func (s *Scanner) ScanProducts() ([]models.Product, error) {
	if !s.isListingPage() {
		s.log.Warn().
			Str("url", s.listingURL).
			Msg("Configured URL does not look like a seller listing page")
		return nil, nil
	}

	body, err := s.fetchWithCache()
	if err != nil {
		return nil, err
	}

	doc, err := s.createDocument(body)
	if err != nil {
		return nil, err
	}

	return s.ScanDocument(doc), nil
}

// ScanDocument scans an already-parsed document. Split out from ScanProducts
// so fixture-driven tests can exercise the pipeline without the network.
func (s *Scanner) ScanDocument(doc *goquery.Document) []models.Product {
	containers, selector := findContainers(doc)
	if containers == nil {
		s.log.Warn().Msg("No products found on listing page")
		return nil
	}

	s.log.Debug().
		Str("selector", selector).
		Int("count", containers.Length()).
		Msg("Matched listing containers")

	var products []models.Product
	containers.Each(func(i int, sel *goquery.Selection) {
		products = append(products, s.extractor.Extract(sel, i))
	})

	normalized := Normalize(products)

	s.log.Info().
		Int("extracted", len(products)).
		Int("normalized", len(normalized)).
		Msg("Scan complete")

	return normalized
}

// fetchWithCache fetches the listing page, honoring the rate-limit block
func (s *Scanner) fetchWithCache() (io.Reader, error) {
	// Check whether fetching is currently blocked
	if s.cacheSvc != nil && s.cacheKey != "" {
		_, err := s.cacheSvc.Get(s.cacheKey)
		if err == nil {
			return nil, fmt.Errorf("%s: blocked for %d seconds after rate limiting", s.cacheKey, int(s.blockTime/time.Second))
		}
	}

	body, err := helpers.FetchWithRandomHeaders(s.listingURL)
	if err != nil {
		if s.cacheSvc != nil && s.cacheKey != "" && strings.HasPrefix(err.Error(), "rate limited") {
			// Remember the block so we stop hammering the marketplace
			s.cacheSvc.Set(s.cacheKey, []byte(fmt.Sprintf("%d", int(s.blockTime/time.Second))), s.blockTime)
		}
		return nil, err
	}

	return body, nil
}

// createDocument creates a goquery document from a reader
func (s *Scanner) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page HTML: %w", err)
	}
	return doc, nil
}

// isListingPage applies the host/path heuristic for a seller listing page
func (s *Scanner) isListingPage() bool {
	u, err := url.Parse(s.listingURL)
	if err != nil {
		return false
	}
	path := u.Path
	return strings.Contains(path, "/mypage") ||
		strings.Contains(path, "/sell") ||
		strings.Contains(path, "/listings")
}
