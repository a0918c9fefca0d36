package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// TestScanDocument tests the full extract-then-normalize pipeline on a fixture
func TestScanDocument(t *testing.T) {
	html := `<html><body>
		<div class="item-box">
			<a href="/item/m100">
				<span class="item-name">スニーカー</span>
				<span class="item-price">¥4,500</span>
			</a>
		</div>
		<div class="item-box">
			<a href="/item/m200">
				<span class="item-name">リセット</span>
				<span class="item-price">¥4,500</span>
			</a>
		</div>
		<div class="item-box">
			<a href="/item/m300">
				<span class="item-name">時計</span>
				<span class="item-price">¥50</span>
			</a>
		</div>
		<div class="item-box">
			<a href="/item/m100">
				<span class="item-name">スニーカー（値下げ済）</span>
				<span class="item-price">¥4,300</span>
			</a>
		</div>
	</body></html>`

	scanner := NewScanner(Config{
		ListingURL: "https://jp.mercari.com/mypage/listings",
		BaseURL:    "https://jp.mercari.com",
	}, nil)

	doc := docFromHTML(t, html)
	products := scanner.ScanDocument(doc)

	// m200 is a blocked name, m300 is below the band, m100 deduplicates to
	// the later record
	require.Len(t, products, 1)
	assert.Equal(t, "m100", products[0].ID)
	assert.Equal(t, "スニーカー（値下げ済）", products[0].Name)
	assert.Equal(t, 4300, products[0].Price)
	assert.Equal(t, "https://jp.mercari.com/item/m100", products[0].URL)
}

// TestScanDocumentEmptyPage tests that an unrecognizable document yields nil
func TestScanDocumentEmptyPage(t *testing.T) {
	scanner := NewScanner(Config{
		ListingURL: "https://jp.mercari.com/mypage/listings",
		BaseURL:    "https://jp.mercari.com",
	}, nil)

	doc := docFromHTML(t, `<html><body><p>nothing here</p></body></html>`)
	products := scanner.ScanDocument(doc)

	assert.Nil(t, products)
}

// TestScanProductsRejectsNonListingPage tests the URL shape guard
func TestScanProductsRejectsNonListingPage(t *testing.T) {
	scanner := NewScanner(Config{
		ListingURL: "https://jp.mercari.com/item/m123",
		BaseURL:    "https://jp.mercari.com",
	}, nil)

	products, err := scanner.ScanProducts()

	assert.NoError(t, err)
	assert.Nil(t, products)
}

// TestScanProductsHonorsFetchBlock tests that a present block key prevents
// any fetch attempt
func TestScanProductsHonorsFetchBlock(t *testing.T) {
	mockCache := NewMockCacheService()
	mockCache.Set("listing_rate_limited", []byte("500"), time.Minute)

	scanner := NewScanner(Config{
		ListingURL: "https://jp.mercari.com/mypage/listings",
		BaseURL:    "https://jp.mercari.com",
		CacheKey:   "listing_rate_limited",
		BlockTime:  500,
	}, mockCache)

	products, err := scanner.ScanProducts()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
	assert.Nil(t, products)
}

// TestIsListingPage tests the path heuristic
func TestIsListingPage(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://jp.mercari.com/mypage/listings", true},
		{"https://jp.mercari.com/mypage", true},
		{"https://jp.mercari.com/sell/edit/m1", true},
		{"https://jp.mercari.com/item/m123", false},
		{"https://jp.mercari.com/", false},
	}

	for _, test := range tests {
		scanner := NewScanner(Config{ListingURL: test.url}, nil)
		assert.Equal(t, test.ok, scanner.isListingPage(), "url %s", test.url)
	}
}
