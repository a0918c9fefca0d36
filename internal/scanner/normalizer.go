package scanner

import (
	"strings"

	"knaito/fleapriceworker/internal/models"
)

// blockedNames are UI-chrome literals the cascade sometimes scoops up from
// buttons and menus. Matched case-insensitively, exact string.
var blockedNames = []string{
	"reset",
	"clear",
	"clear all",
	"login",
	"logout",
	"menu",
	"select all",
	"リセット",
	"クリア",
	"ログイン",
	"ログアウト",
	"メニュー",
	"全選択",
	"全解除",
	"すべて選択",
}

// isBlockedName reports whether name is a known UI-chrome label
func isBlockedName(name string) bool {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, blocked := range blockedNames {
		if lowered == strings.ToLower(blocked) {
			return true
		}
	}
	return false
}

// Normalize filters extractor output before it is surfaced: records with an
// empty name, a blocklisted name or an out-of-band price are dropped, then
// duplicates are collapsed by identifier (last-seen record wins) while the
// original document order is preserved. Normalizing an already-normalized
// list is a no-op.
func Normalize(products []models.Product) []models.Product {
	normalized := make([]models.Product, 0, len(products))
	position := make(map[string]int, len(products))

	for _, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		if isBlockedName(p.Name) {
			continue
		}
		if !models.PriceInBand(p.Price) {
			continue
		}

		if idx, seen := position[p.ID]; seen {
			normalized[idx] = p
			continue
		}
		position[p.ID] = len(normalized)
		normalized = append(normalized, p)
	}

	return normalized
}
