package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
	"github.com/go-chi/chi/v5"
)

type DividendHandler struct {
	service services.PortfolioService
}

func NewDividendHandler(service services.PortfolioService) *DividendHandler {
	return &DividendHandler{service: service}
}

func (h *DividendHandler) HandleListDividends(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	divs, err := h.service.ListDividends(r.Context(), userID, chi.URLParam(r, "portfolioId"))
	if err != nil {
		sendServiceError(w, r, err, "Erro ao buscar dividendos")
		return
	}
	if divs == nil {
		divs = []models.Dividend{}
	}
	utils.SendJSON(w, divs, http.StatusOK)
}

func (h *DividendHandler) HandleAddDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in services.DividendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if in.PortfolioID == "" || in.AssetID == "" || in.Ticker == "" || in.Type == "" ||
		in.Amount == 0 || in.Quantity == 0 || in.PaymentDate == "" {
		utils.SendJSONError(w, "Campos obrigatórios: portfolioId, assetId, ticker, type, amount, quantity, paymentDate", http.StatusBadRequest)
		return
	}
	d, err := h.service.CreateDividend(r.Context(), userID, in)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao criar dividendo")
		return
	}
	utils.SendJSONMessage(w, d, "Dividendo registrado com sucesso", http.StatusCreated)
}

func (h *DividendHandler) HandleDeleteDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	portfolioID := r.URL.Query().Get("portfolioId")
	if portfolioID == "" {
		utils.SendJSONError(w, "portfolioId é obrigatório", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteDividend(r.Context(), userID, portfolioID, chi.URLParam(r, "id")); err != nil {
		sendServiceError(w, r, err, "Erro ao deletar dividendo")
		return
	}
	utils.SendJSONMessage(w, nil, "Dividendo deletado com sucesso", http.StatusOK)
}
