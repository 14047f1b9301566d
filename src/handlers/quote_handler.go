package handlers

import (
	"fmt"
	"net/http"

	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
	"github.com/go-chi/chi/v5"
)

type QuoteHandler struct {
	quotes  services.QuoteProvider
	service services.PortfolioService
}

func NewQuoteHandler(quotes services.QuoteProvider, service services.PortfolioService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, service: service}
}

func (h *QuoteHandler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	quote, err := h.quotes.GetQuote(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		sendServiceError(w, r, err, "Erro ao buscar cotação")
		return
	}
	utils.SendJSON(w, quote, http.StatusOK)
}

// HandleUpdatePortfolioQuotes refreshes every asset price of a portfolio.
// Partial success is still a 200; the body lists what changed.
func (h *QuoteHandler) HandleUpdatePortfolioQuotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	res, err := h.service.UpdateQuotes(r.Context(), userID, chi.URLParam(r, "portfolioId"))
	if err != nil {
		sendServiceError(w, r, err, "Erro ao atualizar cotações")
		return
	}
	msg := fmt.Sprintf("%d ativo(s) atualizado(s)", res.Updated)
	if res.Total == 0 {
		msg = "Nenhum ativo para atualizar"
	}
	utils.SendJSONMessage(w, res, msg, http.StatusOK)
}
