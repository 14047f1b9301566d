// src/handlers/portfolio_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/processors"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
	"github.com/go-chi/chi/v5"
)

// PortfolioHandler serves the analytics views of a portfolio.
type PortfolioHandler struct {
	service services.PortfolioService
}

func NewPortfolioHandler(service services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

// HandleGetMetrics returns the full report. The body is hashed into an ETag
// so dashboards polling an unchanged portfolio get a 304.
func (h *PortfolioHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	portfolioID := chi.URLParam(r, "portfolioId")
	ctxLogger := logger.FromContext(r.Context())
	ctxLogger.Info("Handling GetMetrics", "portfolioID", portfolioID)

	report, err := h.service.Metrics(r.Context(), userID, portfolioID)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao calcular métricas")
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	etag, etagErr := utils.GenerateETag(report)
	if etagErr != nil {
		ctxLogger.Warn("Proceeding without ETag", "portfolioID", portfolioID, "error", etagErr)
	} else {
		w.Header().Set("ETag", etag)
		for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(candidate) == etag {
				ctxLogger.Debug("ETag match for metrics", "portfolioID", portfolioID)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	utils.SendJSON(w, report, http.StatusOK)
}

func (h *PortfolioHandler) HandleGetEvolution(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind := processors.EvolutionKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = processors.EvolutionPatrimony
	}
	points, err := h.service.Evolution(r.Context(), userID, chi.URLParam(r, "portfolioId"), kind)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao calcular evolução")
		return
	}
	utils.SendJSON(w, points, http.StatusOK)
}

func (h *PortfolioHandler) HandleEstimateTax(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req struct {
		Kind   processors.TaxKind `json:"kind"`
		Amount *float64           `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Amount == nil || req.Kind == "" {
		utils.SendJSONError(w, "Campos obrigatórios: kind, amount", http.StatusBadRequest)
		return
	}
	est, err := h.service.EstimateTax(req.Kind, *req.Amount)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao estimar imposto")
		return
	}
	utils.SendJSON(w, est, http.StatusOK)
}
