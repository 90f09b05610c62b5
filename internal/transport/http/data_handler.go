package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "covidcli/internal/errors"
	"covidcli/internal/services"
)

// DataHandler handles dataset query HTTP requests
type DataHandler struct {
	service      *services.DataService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service *services.DataService, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "data")),
		errorHandler: apierrors.NewErrorHandler(logger),
	}
}

// RegisterRoutes registers the data routes
func (h *DataHandler) RegisterRoutes(r chi.Router) {
	r.Route("/data", func(r chi.Router) {
		r.Get("/countries", h.GetCountries)
		r.Get("/bounds", h.GetBounds)
		r.Get("/query", h.Query)
		r.Get("/stats", h.GetStats)
	})
}

// GetCountries handles GET /api/data/countries. The selector boundary uses
// this to populate its country choices.
func (h *DataHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"countries": h.service.Countries(r.Context()),
	})
}

// GetBounds handles GET /api/data/bounds. The date-range picker clamps its
// selectable range to these bounds.
func (h *DataHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Bounds(r.Context()))
}

// GetStats handles GET /api/data/stats, exposing the pipeline load
// statistics (including excluded-row counts) for diagnostics.
func (h *DataHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Stats(r.Context()))
}

// Query handles GET /api/data/query?country=&from=&to=.
//
// An empty or reversed range is a successful empty response; an unknown
// country or malformed date is a 400 contract violation.
func (h *DataHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := services.QueryRequest{
		Country: r.URL.Query().Get("country"),
		From:    r.URL.Query().Get("from"),
		To:      r.URL.Query().Get("to"),
	}

	resp, err := h.service.Query(ctx, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}
