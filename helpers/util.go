package helpers

import (
	"errors"
	"net/url"
	"strings"
)

// GetSplitPart splits target by separate and returns the part at index
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// SplitTextLines splits free text into trimmed, non-empty lines
func SplitTextLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ResolveURL resolves href against base. Absolute hrefs pass through,
// protocol-relative hrefs take the base scheme, empty stays empty.
func ResolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
