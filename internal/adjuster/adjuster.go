package adjuster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/logger"
)

// Adjuster runs adjustment batches: for each selected product it computes
// the reduced price, skips items that would undercut the floor, and applies
// the rest through the configured Applier. Items are processed strictly in
// sequence with a flat delay between them; a started batch runs every item
// to completion.
type Adjuster struct {
	applier   Applier
	itemDelay time.Duration
	log       *logger.Logger
}

// New creates an adjuster around the given application mechanism
func New(applier Applier, itemDelay time.Duration) *Adjuster {
	return &Adjuster{
		applier:   applier,
		itemDelay: itemDelay,
		log:       logger.ForAdjuster(),
	}
}

// AdjustBatch processes every product and returns one result per product.
// An unexpected panic during orchestration is recovered into a failed batch
// without discarding results accumulated so far.
func (a *Adjuster) AdjustBatch(ctx context.Context, products []models.Product, reduction, minPrice int) (batch BatchResult) {
	batch.BatchID = uuid.New().String()
	batch.Results = make([]Result, 0, len(products))

	defer func() {
		if r := recover(); r != nil {
			batch.Success = false
			batch.Error = fmt.Sprintf("batch aborted: %v", r)
			batch.Summary = summarize(batch.Results)
			a.log.Error().
				Str("batch_id", batch.BatchID).
				Interface("panic", r).
				Msg("Adjustment batch aborted")
		}
	}()

	a.log.Info().
		Str("batch_id", batch.BatchID).
		Str("applier", a.applier.Name()).
		Int("products", len(products)).
		Int("reduction", reduction).
		Int("min_price", minPrice).
		Msg("Starting adjustment batch")

	for i, product := range products {
		batch.Results = append(batch.Results, a.adjustOne(ctx, product, reduction, minPrice))

		// Flat rate limit between items, nothing adaptive
		if i < len(products)-1 && a.itemDelay > 0 {
			time.Sleep(a.itemDelay)
		}
	}

	batch.Success = true
	batch.Summary = summarize(batch.Results)

	a.log.Info().
		Str("batch_id", batch.BatchID).
		Int("total", batch.Summary.Total).
		Int("success", batch.Summary.Success).
		Int("failed", batch.Summary.Failed).
		Msg("Adjustment batch complete")

	return batch
}

// adjustOne runs the per-product state machine: pending moves to exactly one
// of skipped-floor, applied or failed
func (a *Adjuster) adjustOne(ctx context.Context, product models.Product, reduction, minPrice int) Result {
	newPrice := product.Price - reduction

	if newPrice < minPrice {
		a.log.Debug().
			Str("product", product.Name).
			Int("new_price", newPrice).
			Int("min_price", minPrice).
			Msg("Skipping product below floor price")
		return Result{
			ID:      product.ID,
			Name:    product.Name,
			Success: false,
			Status:  StatusSkippedFloor,
			Message: fmt.Sprintf("最低価格以下のためスキップ (新価格: %d円)", newPrice),
		}
	}

	if err := a.applier.Apply(ctx, product, newPrice); err != nil {
		a.log.Error().
			Err(err).
			Str("product", product.Name).
			Msg("Price application failed")
		return Result{
			ID:      product.ID,
			Name:    product.Name,
			Success: false,
			Status:  StatusFailed,
			Message: "価格変更に失敗しました",
		}
	}

	return Result{
		ID:       product.ID,
		Name:     product.Name,
		Success:  true,
		Status:   StatusApplied,
		OldPrice: product.Price,
		NewPrice: newPrice,
		Message:  fmt.Sprintf("%d円 → %d円 (−%d円)", product.Price, newPrice, reduction),
	}
}

func summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Success++
		} else {
			summary.Failed++
		}
	}
	return summary
}
