package scanner

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// containerSelectors is the ordered list of strategies for locating the
// repeated elements that each represent one listing. Strict first-match
// priority: the first selector yielding at least one node wins, no scoring.
// The page structure is third-party and changes without notice, so the list
// runs from the most specific hooks down to "every link on the page".
var containerSelectors = []string{
	// Explicit test hooks
	".item-box",
	`[data-testid="item-cell"]`,

	// Marketplace custom elements
	"mer-item-thumbnail",
	"mer-item-object",
	`[data-testid*="item-"]`,
	`a[href*="/items/m"]`,

	// Class-substring matches
	`[class*="ItemCell"]`,
	`[class*="itemCell"]`,
	`[class*="ItemThumbnail"]`,
	`[class*="itemThumbnail"]`,
	`[class*="ItemObject"]`,
	`[class*="itemObject"]`,
	`[class*="Item_"]`,
	`[class*="item_"]`,
	`[class*="Item-"]`,
	`[class*="item-"]`,
	`[class*="listing"]`,
	`[class*="product"]`,
	`[class*="card"]`,
	`[class*="Card"]`,

	// Structural fallbacks
	`section[class*="item"] > div`,
	`section[class*="Item"] > div`,
	`div[class*="grid"] > div`,
	`div[class*="Grid"] > div`,
	`div[class*="list"] > div`,
	`div[class*="List"] > div`,
	"ul > li",
	"ol > li",

	// Image-bearing elements
	`div:has(img[alt*="商品"])`,
	`div:has(img[src*="item"])`,
	`div:has(img[src*="product"])`,
	`a:has(img)`,

	// Generic containers
	"article",
	"section > div",
	"main div",
	`div[role="listitem"]`,
	`[role="gridcell"]`,

	// Last resort
	"a[href]",
}

// findContainers runs the selector cascade over the document and returns the
// result set of the first matching selector along with the selector used.
// A selector the engine cannot compile is a non-match, never an error.
func findContainers(doc *goquery.Document) (*goquery.Selection, string) {
	for _, sel := range containerSelectors {
		matcher, err := cascadia.Compile(sel)
		if err != nil {
			// Unsupported pseudo-class or syntax: cascade to the next one
			continue
		}
		nodes := doc.FindMatcher(matcher)
		if nodes.Length() > 0 {
			return nodes, sel
		}
	}
	return nil, ""
}

// selectFirst returns the first descendant matching sel, or nil when sel does
// not compile or nothing matches. Same per-attempt error tolerance as the
// container cascade.
func selectFirst(s *goquery.Selection, sel string) *goquery.Selection {
	matcher, err := cascadia.Compile(sel)
	if err != nil {
		return nil
	}
	found := s.FindMatcher(matcher)
	if found.Length() == 0 {
		return nil
	}
	return found.First()
}
