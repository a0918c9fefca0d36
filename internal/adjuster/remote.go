package adjuster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/logger"
	apperrors "knaito/fleapriceworker/pkg/errors"
)

// EndpointCandidate describes one guessed update endpoint: where to send the
// request and how to shape the payload. The real endpoint is undocumented,
// so candidates are declared once and tried in order instead of re-deriving
// ad hoc fetch attempts per call site.
type EndpointCandidate struct {
	Name    string
	Method  string
	URL     func(product models.Product, newPrice int) string
	Payload func(product models.Product, newPrice int) ([]byte, error)
}

// RemoteApplier applies price changes against a declarative list of endpoint
// candidates with a stop-on-first-success rule
type RemoteApplier struct {
	client     *http.Client
	candidates []EndpointCandidate
	log        *logger.Logger
}

// NewRemoteApplier creates a remote applier over the given candidates
func NewRemoteApplier(candidates []EndpointCandidate) *RemoteApplier {
	return &RemoteApplier{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		candidates: candidates,
		log:        logger.ForAdjuster(),
	}
}

// DefaultEndpointCandidates returns the default update-endpoint guesses for
// a marketplace rooted at baseURL. True remote price mutation is a
// site-specific integration point: operators are expected to replace these
// with the shapes their marketplace actually accepts.
func DefaultEndpointCandidates(baseURL string) []EndpointCandidate {
	return []EndpointCandidate{
		{
			Name:   "item-update",
			Method: http.MethodPut,
			URL: func(p models.Product, _ int) string {
				return fmt.Sprintf("%s/api/items/%s", baseURL, p.ProductID)
			},
			Payload: func(_ models.Product, newPrice int) ([]byte, error) {
				return json.Marshal(map[string]int{"price": newPrice})
			},
		},
		{
			Name:   "sell-edit",
			Method: http.MethodPost,
			URL: func(p models.Product, _ int) string {
				return fmt.Sprintf("%s/sell/edit/%s", baseURL, p.ProductID)
			},
			Payload: func(p models.Product, newPrice int) ([]byte, error) {
				return json.Marshal(map[string]interface{}{
					"id":    p.ProductID,
					"price": newPrice,
				})
			},
		},
	}
}

// Apply tries each endpoint candidate in order and stops at the first success
func (r *RemoteApplier) Apply(ctx context.Context, product models.Product, newPrice int) error {
	if len(r.candidates) == 0 {
		return apperrors.NewApplication("remote", "no update endpoints configured", nil)
	}

	var lastErr error
	for _, candidate := range r.candidates {
		err := r.tryCandidate(ctx, candidate, product, newPrice)
		if err == nil {
			r.log.Debug().
				Str("endpoint", candidate.Name).
				Str("product", product.ProductID).
				Msg("Price update accepted")
			return nil
		}
		r.log.Debug().
			Err(err).
			Str("endpoint", candidate.Name).
			Msg("Update endpoint rejected, trying next")
		lastErr = err
	}

	return apperrors.NewApplication("remote", "all update endpoints failed", lastErr)
}

func (r *RemoteApplier) tryCandidate(ctx context.Context, candidate EndpointCandidate, product models.Product, newPrice int) error {
	payload, err := candidate.Payload(product, newPrice)
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, candidate.Method, candidate.URL(product, newPrice), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Name identifies the mechanism for logging
func (r *RemoteApplier) Name() string {
	return "remote"
}
