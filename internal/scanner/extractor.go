package scanner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"knaito/fleapriceworker/helpers"
	"knaito/fleapriceworker/internal/models"
)

// nameSelectors is the ordered cascade for a listing's display name
var nameSelectors = []string{
	".item-name",
	`[data-testid="item-name"]`,
	`[data-testid="thumbnail-item-name"]`,
	"figcaption",
	"h3",
	".item-title",
	`[class*="name"]`,
	`[class*="title"]`,
}

// priceSelectors is the ordered cascade for a listing's price element
var priceSelectors = []string{
	".item-price",
	`[data-testid="item-price"]`,
	`[data-testid="thumbnail-item-price"]`,
	`span[data-testid="price"]`,
	`[class*="price"]`,
}

var (
	// priceRe matches a currency amount: optional yen glyph, digit groups
	// with optional comma separators, optional trailing 円. The comma-grouped
	// alternative requires at least one comma; with `*` leftmost-first
	// alternation would truncate "8000" to its first three digits.
	priceRe = regexp.MustCompile(`[¥￥]?\s*(\d{1,3}(?:,\d{3})+|\d+)\s*円?`)

	// itemIDRe pulls the marketplace item id out of a listing URL
	itemIDRe = regexp.MustCompile(`item/(\w+)`)

	// pure price strings are never listing names
	purePriceRe = regexp.MustCompile(`^[¥￥]?\s*[\d,]+\s*円?$`)

	// statusLinePatterns match status/time/UI-chrome text that must not be
	// mistaken for a listing name when falling back to free-text lines
	statusLinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d+\s*秒前`),
		regexp.MustCompile(`^\d+\s*分前`),
		regexp.MustCompile(`^\d+\s*時間前`),
		regexp.MustCompile(`^\d+\s*日前`),
		regexp.MustCompile(`前に更新`),
		regexp.MustCompile(`(?i)^sold(\s*out)?$`),
		regexp.MustCompile(`^売り切れ`),
		regexp.MustCompile(`^フォロー`),
		regexp.MustCompile(`^いいね`),
	}
)

// FieldExtractor derives a best-effort product record from one candidate
// container element. It never fails: unresolved fields degrade to
// placeholders so one broken container cannot abort a scan.
type FieldExtractor struct {
	BaseURL string
}

// Extract produces the product record for the index-th container
func (e *FieldExtractor) Extract(s *goquery.Selection, index int) (product models.Product) {
	// The page is untrusted input; a pathological node must still yield a
	// placeholder record rather than a panic.
	defer func() {
		if r := recover(); r != nil {
			if product.Name == "" {
				product.Name = placeholderName(index)
			}
			if product.ProductID == "" {
				product.ProductID = tempID(index)
			}
			product.ID = product.ProductID
		}
	}()

	root := extractionRoot(s)

	product.Name = e.extractName(root, s, index)
	product.Price = e.extractPrice(root, s)
	product.URL = e.extractURL(s, index)
	product.ProductID = extractProductID(product.URL, index)
	product.ID = product.ProductID
	return product
}

// extractionRoot prefers a declarative shadow template as the extraction
// root when the custom element carries one
func extractionRoot(s *goquery.Selection) *goquery.Selection {
	if tmpl := selectFirst(s, "template[shadowrootmode]"); tmpl != nil {
		return tmpl
	}
	return s
}

func (e *FieldExtractor) extractName(root, full *goquery.Selection, index int) string {
	for _, sel := range nameSelectors {
		el := selectFirst(root, sel)
		if el == nil && root != full {
			el = selectFirst(full, sel)
		}
		if el == nil {
			continue
		}
		if text := strings.TrimSpace(el.Text()); text != "" {
			return text
		}
	}

	// Fall back to the first plausible free-text line of the container
	for _, line := range helpers.SplitTextLines(full.Text()) {
		if isNameCandidate(line) {
			return line
		}
	}

	return placeholderName(index)
}

// isNameCandidate rejects status lines, pure prices and chrome labels
func isNameCandidate(line string) bool {
	if utf8.RuneCountInString(line) < 3 {
		return false
	}
	if purePriceRe.MatchString(line) {
		return false
	}
	for _, pattern := range statusLinePatterns {
		if pattern.MatchString(line) {
			return false
		}
	}
	return !isBlockedName(line)
}

func (e *FieldExtractor) extractPrice(root, full *goquery.Selection) int {
	for _, sel := range priceSelectors {
		el := selectFirst(root, sel)
		if el == nil && root != full {
			el = selectFirst(full, sel)
		}
		if el == nil {
			continue
		}
		if price, ok := parsePrice(el.Text()); ok {
			return price
		}
	}

	// Fall back to scanning the container's full text
	if price, ok := parsePrice(full.Text()); ok {
		return price
	}
	return 0
}

// parsePrice returns the first currency amount in text that falls within the
// valid price band
func parsePrice(text string) (int, bool) {
	for _, match := range priceRe.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(match[1], ",", "")
		price, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if models.PriceInBand(price) {
			return price, true
		}
	}
	return 0, false
}

func (e *FieldExtractor) extractURL(s *goquery.Selection, index int) string {
	// The container itself may be the hyperlink
	if goquery.NodeName(s) == "a" {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return helpers.ResolveURL(e.BaseURL, strings.TrimSpace(href))
		}
	}

	// First hyperlink descendant
	if link := selectFirst(s, "a[href]"); link != nil {
		if href, ok := link.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return helpers.ResolveURL(e.BaseURL, strings.TrimSpace(href))
		}
	}

	// href-bearing ancestor
	if anc := s.Closest("a[href]"); anc.Length() > 0 {
		if href, ok := anc.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return helpers.ResolveURL(e.BaseURL, strings.TrimSpace(href))
		}
	}

	return fmt.Sprintf("#product_%d", index+1)
}

// extractProductID derives a stable id from the URL path, else a temp id
func extractProductID(url string, index int) string {
	if m := itemIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return tempID(index)
}

func placeholderName(index int) string {
	return fmt.Sprintf("商品_%d", index+1)
}

func tempID(index int) string {
	return fmt.Sprintf("temp_%d", index+1)
}
