package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"knaito/fleapriceworker/internal/adjuster"
	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/logger"
	"knaito/fleapriceworker/services/store"
)

// ProductScanner yields the current listing's products
type ProductScanner interface {
	ScanProducts() ([]models.Product, error)
}

// BatchAdjuster runs a price reduction over a batch of products
type BatchAdjuster interface {
	AdjustBatch(ctx context.Context, products []models.Product, reduction, minPrice int) adjuster.BatchResult
}

// BatchRunner triggers one full check-and-execute cycle over the stored
// settings and selection, bypassing the daily schedule
type BatchRunner interface {
	RunNow(ctx context.Context)
}

// Server exposes the worker's operations over HTTP
type Server struct {
	scanner  ProductScanner
	adjuster BatchAdjuster
	runner   BatchRunner
	store    store.Store
	log      *logger.Logger
}

// NewServer wires the API around the scanner, adjuster, scheduler and store
func NewServer(scanner ProductScanner, adj BatchAdjuster, runner BatchRunner, st store.Store) *Server {
	return &Server{
		scanner:  scanner,
		adjuster: adj,
		runner:   runner,
		store:    st,
		log:      logger.ForAPI(),
	}
}

// Router builds the HTTP routing table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Post("/adjust", s.handleAdjust)
		r.Post("/run", s.handleRun)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Get("/products", s.handleGetProducts)
		r.Put("/products", s.handlePutProducts)
		r.Post("/products/select", s.handleSelectProducts)

		r.Get("/logs", s.handleGetLogs)
		r.Delete("/logs", s.handleClearLogs)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScan fetches the listing page, extracts its products and persists them
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	products, err := s.scanner.ScanProducts()
	if err != nil {
		s.log.Error().Err(err).Msg("Scan failed")
		respondError(w, http.StatusBadGateway, "scan failed: "+err.Error())
		return
	}

	if err := s.store.SaveProducts(r.Context(), products); err != nil {
		s.log.Error().Err(err).Msg("Failed to save scanned products")
		respondError(w, http.StatusInternalServerError, "failed to save products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    products,
	})
}

// handleRun triggers the scheduler's cycle immediately: enabled check, stored
// selection, stored reduction and floor. The batch runs within the request.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.runner.RunNow(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

type adjustRequest struct {
	Products  []models.Product `json:"products"`
	Reduction int              `json:"reduction"`
	MinPrice  int              `json:"minPrice"`
}

// handleAdjust runs a price reduction batch over the posted products; when
// none are posted the stored selection is used
func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if req.Reduction <= 0 {
		req.Reduction = settings.Reduction
	}
	if req.MinPrice <= 0 {
		req.MinPrice = settings.MinPrice
	}

	products := req.Products
	if len(products) == 0 {
		products, err = s.store.GetSelectedProducts(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load selected products")
			return
		}
	}
	if len(products) == 0 {
		respondError(w, http.StatusBadRequest, "no products to adjust")
		return
	}

	batch := s.adjuster.AdjustBatch(r.Context(), products, req.Reduction, req.MinPrice)

	if err := s.store.AppendLogs(r.Context(), batch.LogEntries()); err != nil {
		s.log.Error().Err(err).Msg("Failed to append execution logs")
	}

	respondJSON(w, http.StatusOK, batch)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateSettings(settings); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveSettings(r.Context(), settings); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.GetProducts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	selected, err := s.store.GetSelectedProducts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load selection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"selected": selected,
	})
}

type putProductsRequest struct {
	Products []models.Product `json:"products"`
	Selected []models.Product `json:"selected"`
}

func (s *Server) handlePutProducts(w http.ResponseWriter, r *http.Request) {
	var req putProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Products != nil {
		if err := s.store.SaveProducts(r.Context(), req.Products); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save products")
			return
		}
	}
	if req.Selected != nil {
		if err := s.store.SaveSelectedProducts(r.Context(), req.Selected); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save selection")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

type selectRequest struct {
	Strategy string `json:"strategy"`
}

// handleSelectProducts replaces the selection with a bulk strategy over the
// stored product list
func (s *Server) handleSelectProducts(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	products, err := s.store.GetProducts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	selected, err := SelectByStrategy(products, req.Strategy)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SaveSelectedProducts(r.Context(), selected); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save selection")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"selected": selected,
	})
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.GetLogs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load logs")
		return
	}
	if logs == nil {
		logs = []models.LogEntry{}
	}
	respondJSON(w, http.StatusOK, logs)
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearLogs(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
