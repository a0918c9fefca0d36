package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knaito/fleapriceworker/internal/adjuster"
	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/services/store"
)

// stubScanner returns a fixed product set
type stubScanner struct {
	products []models.Product
	err      error
}

func (s *stubScanner) ScanProducts() ([]models.Product, error) {
	return s.products, s.err
}

// stubAdjuster records the batch it was asked to run
type stubAdjuster struct {
	gotProducts  []models.Product
	gotReduction int
	gotMinPrice  int
	result       adjuster.BatchResult
}

func (s *stubAdjuster) AdjustBatch(ctx context.Context, products []models.Product, reduction, minPrice int) adjuster.BatchResult {
	s.gotProducts = products
	s.gotReduction = reduction
	s.gotMinPrice = minPrice
	return s.result
}

// stubRunner records manual-run triggers
type stubRunner struct {
	fired int
}

func (s *stubRunner) RunNow(ctx context.Context) {
	s.fired++
}

func newTestServer(scanner *stubScanner, adj *stubAdjuster, st store.Store) http.Handler {
	return NewServer(scanner, adj, &stubRunner{}, st).Router()
}

// TestHealthEndpoint tests the liveness probe
func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(&stubScanner{}, &stubAdjuster{}, store.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

// TestScanEndpoint tests that a scan persists and returns products
func TestScanEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	scanned := []models.Product{{ID: "m1", Name: "商品A", Price: 1000}}
	router := newTestServer(&stubScanner{products: scanned}, &stubAdjuster{}, st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool             `json:"success"`
		Data    []models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, scanned, resp.Data)

	stored, err := st.GetProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scanned, stored)
}

// TestScanEndpointFailure tests the upstream error path
func TestScanEndpointFailure(t *testing.T) {
	router := newTestServer(&stubScanner{err: errors.New("fetch refused")}, &stubAdjuster{}, store.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "fetch refused")
}

// TestAdjustEndpoint tests an explicit-products adjustment call
func TestAdjustEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	adj := &stubAdjuster{result: adjuster.BatchResult{
		BatchID: "b1",
		Success: true,
		Results: []adjuster.Result{
			{ID: "m1", Name: "商品A", Success: true, Status: adjuster.StatusApplied, OldPrice: 2000, NewPrice: 1900, Message: "2000円 → 1900円 (−100円)"},
		},
		Summary: adjuster.Summary{Total: 1, Success: 1},
	}}
	router := newTestServer(&stubScanner{}, adj, st)

	body, _ := json.Marshal(map[string]any{
		"products":  []models.Product{{ID: "m1", Name: "商品A", Price: 2000}},
		"reduction": 100,
		"minPrice":  300,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/adjust", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, adj.gotReduction)
	assert.Equal(t, 300, adj.gotMinPrice)
	require.Len(t, adj.gotProducts, 1)

	var batch adjuster.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, "b1", batch.BatchID)

	// The batch results must land in the execution log
	logs, err := st.GetLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogTypeSuccess, logs[0].Type)
}

// TestAdjustEndpointDefaults tests that omitted parameters fall back to the
// stored settings and selection
func TestAdjustEndpointDefaults(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	settings := models.DefaultSettings()
	settings.Reduction = 150
	settings.MinPrice = 400
	require.NoError(t, st.SaveSettings(ctx, settings))

	selected := []models.Product{{ID: "m9", Name: "選択済み", Price: 5000}}
	require.NoError(t, st.SaveSelectedProducts(ctx, selected))

	adj := &stubAdjuster{result: adjuster.BatchResult{Success: true}}
	router := newTestServer(&stubScanner{}, adj, st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/adjust", bytes.NewReader([]byte(`{}`))))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 150, adj.gotReduction)
	assert.Equal(t, 400, adj.gotMinPrice)
	assert.Equal(t, selected, adj.gotProducts)
}

// TestAdjustEndpointNoProducts tests rejection when nothing is selected
func TestAdjustEndpointNoProducts(t *testing.T) {
	router := newTestServer(&stubScanner{}, &stubAdjuster{}, store.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/adjust", bytes.NewReader([]byte(`{}`))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no products")
}

// TestRunEndpoint tests the manual-execution trigger
func TestRunEndpoint(t *testing.T) {
	runner := &stubRunner{}
	router := NewServer(&stubScanner{}, &stubAdjuster{}, runner, store.NewMemoryStore()).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.fired)
}

// TestSettingsRoundTrip tests GET and PUT of settings
func TestSettingsRoundTrip(t *testing.T) {
	router := newTestServer(&stubScanner{}, &stubAdjuster{}, store.NewMemoryStore())

	// Defaults come back before anything is saved
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.DefaultSettings(), got)

	// Save new settings
	want := models.Settings{IsEnabled: true, MinPrice: 500, Reduction: 200, StartTime: "10:00", EndTime: "18:00"}
	body, _ := json.Marshal(want)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	// And read them back
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want, got)
}

// TestPutSettingsRejectsInvalid tests settings validation
func TestPutSettingsRejectsInvalid(t *testing.T) {
	router := newTestServer(&stubScanner{}, &stubAdjuster{}, store.NewMemoryStore())

	tests := []models.Settings{
		{IsEnabled: true, MinPrice: 50, Reduction: 100, StartTime: "09:00", EndTime: "21:00"},
		{IsEnabled: true, MinPrice: 300, Reduction: 0, StartTime: "09:00", EndTime: "21:00"},
		{IsEnabled: true, MinPrice: 300, Reduction: 100, StartTime: "21:00", EndTime: "09:00"},
		{IsEnabled: true, MinPrice: 300, Reduction: 100},
	}

	for _, settings := range tests {
		body, _ := json.Marshal(settings)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "settings %+v", settings)
	}
}

// TestSelectEndpoint tests bulk selection over the stored products
func TestSelectEndpoint(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.SaveProducts(ctx, []models.Product{
		{ID: "m1", Name: "安い", Price: 500},
		{ID: "m2", Name: "高い", Price: 9000},
		{ID: "m3", Name: "中間", Price: 3000},
	}))

	router := newTestServer(&stubScanner{}, &stubAdjuster{}, st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products/select",
		bytes.NewReader([]byte(`{"strategy":"high"}`))))
	require.Equal(t, http.StatusOK, rec.Code)

	selected, err := st.GetSelectedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "m2", selected[0].ID)
	assert.Equal(t, "m3", selected[1].ID)
}

// TestSelectEndpointUnknownStrategy tests strategy validation
func TestSelectEndpointUnknownStrategy(t *testing.T) {
	router := newTestServer(&stubScanner{}, &stubAdjuster{}, store.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products/select",
		bytes.NewReader([]byte(`{"strategy":"random"}`))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestLogsEndpoints tests reading and clearing the execution log
func TestLogsEndpoints(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.AppendLogs(ctx, []models.LogEntry{
		{Type: models.LogTypeSuccess, Message: "2000円 → 1900円 (−100円)", ProductName: "商品A"},
	}))

	router := newTestServer(&stubScanner{}, &stubAdjuster{}, st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var logs []models.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "商品A", logs[0].ProductName)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/logs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Empty(t, logs)
}

// TestPutProducts tests replacing the product and selection lists
func TestPutProducts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	router := newTestServer(&stubScanner{}, &stubAdjuster{}, st)

	body, _ := json.Marshal(putProductsRequest{
		Products: []models.Product{{ID: "m1", Name: "商品A", Price: 1000}},
		Selected: []models.Product{{ID: "m1", Name: "商品A", Price: 1000}},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/products", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	products, err := st.GetProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	selected, err := st.GetSelectedProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, selected, 1)
}
