package api

import (
	"fmt"
	"sort"

	"knaito/fleapriceworker/internal/models"
)

// Bulk selection strategies
const (
	SelectAll  = "all"
	SelectNone = "none"
	SelectHigh = "high"
	SelectLow  = "low"
)

// SelectByStrategy returns the subset of products the strategy names.
// "high" and "low" take the more/less expensive half, rounding up.
func SelectByStrategy(products []models.Product, strategy string) ([]models.Product, error) {
	switch strategy {
	case SelectAll:
		return append([]models.Product(nil), products...), nil
	case SelectNone:
		return []models.Product{}, nil
	case SelectHigh:
		return priceHalf(products, true), nil
	case SelectLow:
		return priceHalf(products, false), nil
	default:
		return nil, fmt.Errorf("unknown selection strategy %q", strategy)
	}
}

// priceHalf returns ceil(n/2) products by price, preserving the original order
// of the chosen items
func priceHalf(products []models.Product, high bool) []models.Product {
	if len(products) == 0 {
		return []models.Product{}
	}

	byPrice := append([]models.Product(nil), products...)
	sort.SliceStable(byPrice, func(i, j int) bool {
		if high {
			return byPrice[i].Price > byPrice[j].Price
		}
		return byPrice[i].Price < byPrice[j].Price
	})

	take := (len(products) + 1) / 2
	chosen := make(map[string]bool, take)
	for _, p := range byPrice[:take] {
		chosen[p.ID] = true
	}

	out := make([]models.Product, 0, take)
	for _, p := range products {
		if chosen[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// validateSettings rejects settings the scheduler could not act on
func validateSettings(s models.Settings) error {
	if s.MinPrice < models.MinValidPrice {
		return fmt.Errorf("minPrice must be at least %d", models.MinValidPrice)
	}
	if s.Reduction <= 0 {
		return fmt.Errorf("reduction must be positive")
	}
	if s.StartTime == "" || s.EndTime == "" {
		return fmt.Errorf("startTime and endTime are required")
	}
	if s.StartTime >= s.EndTime {
		return fmt.Errorf("execution window %s-%s is empty", s.StartTime, s.EndTime)
	}
	return nil
}
