package adjuster

import (
	"context"
	"math/rand/v2"
	"time"

	"knaito/fleapriceworker/internal/models"
	apperrors "knaito/fleapriceworker/pkg/errors"
)

// Applier applies one price change to the marketplace. The mechanism is
// environment-dependent (simulation, remote endpoint, browser automation);
// the contract is a single success-or-failure outcome per call.
type Applier interface {
	// Apply sets product's price to newPrice
	Apply(ctx context.Context, product models.Product, newPrice int) error

	// Name identifies the mechanism for logging
	Name() string
}

// SimulatedApplier fakes price application with a fixed pass rate. Used for
// demonstration and dry runs when no real update mechanism is configured.
type SimulatedApplier struct {
	// PassRate is the probability of a simulated success, within [0,1]
	PassRate float64

	// MinDelay/MaxDelay bound the simulated processing time per item
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewSimulatedApplier creates a simulated applier with the given pass rate
func NewSimulatedApplier(passRate float64) *SimulatedApplier {
	return &SimulatedApplier{
		PassRate: passRate,
		MinDelay: 1 * time.Second,
		MaxDelay: 3 * time.Second,
	}
}

// Apply simulates a price update
func (a *SimulatedApplier) Apply(ctx context.Context, product models.Product, newPrice int) error {
	delay := a.MinDelay
	if a.MaxDelay > a.MinDelay {
		delay += rand.N(a.MaxDelay - a.MinDelay)
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if rand.Float64() >= a.PassRate {
		return apperrors.NewApplication("simulate", "simulated update failure", nil)
	}
	return nil
}

// Name identifies the mechanism for logging
func (a *SimulatedApplier) Name() string {
	return "simulate"
}
