package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
	"github.com/go-chi/chi/v5"
)

// PortfolioManagerHandler serves portfolio CRUD.
type PortfolioManagerHandler struct {
	service services.PortfolioService
}

func NewPortfolioManagerHandler(service services.PortfolioService) *PortfolioManagerHandler {
	return &PortfolioManagerHandler{service: service}
}

func (h *PortfolioManagerHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	portfolios, err := h.service.ListPortfolios(r.Context(), userID)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao buscar portfólios")
		return
	}
	if portfolios == nil {
		portfolios = []models.Portfolio{}
	}
	utils.SendJSON(w, portfolios, http.StatusOK)
}

func (h *PortfolioManagerHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		utils.SendJSONError(w, "Nome do portfólio é obrigatório", http.StatusBadRequest)
		return
	}

	p, err := h.service.CreatePortfolio(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao criar portfólio")
		return
	}
	logger.FromContext(r.Context()).Info("Portfolio created", "portfolioID", p.ID)
	utils.SendJSONMessage(w, p, "Portfólio criado com sucesso", http.StatusCreated)
}

func (h *PortfolioManagerHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPortfolio(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, err, "Erro ao buscar portfólio")
		return
	}
	utils.SendJSON(w, p, http.StatusOK)
}

func (h *PortfolioManagerHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var upd models.PortfolioUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	p, err := h.service.UpdatePortfolio(r.Context(), userID, chi.URLParam(r, "id"), upd)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao atualizar portfólio")
		return
	}
	utils.SendJSONMessage(w, p, "Portfólio atualizado com sucesso", http.StatusOK)
}

// DeletePortfolio also removes the portfolio's assets, transactions and
// dividends; the response carries how many of each were removed.
func (h *PortfolioManagerHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	portfolioID := chi.URLParam(r, "id")
	res, err := h.service.DeletePortfolio(r.Context(), userID, portfolioID)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao deletar portfólio")
		return
	}
	utils.SendJSONMessage(w, res, "Portfólio deletado com sucesso", http.StatusOK)
}
