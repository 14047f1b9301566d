// src/handlers/transaction_handler.go
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

type TransactionHandler struct {
	service services.PortfolioService
}

func NewTransactionHandler(service services.PortfolioService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	txs, err := h.service.ListTransactions(r.Context(), userID, chi.URLParam(r, "portfolioId"))
	if err != nil {
		sendServiceError(w, r, err, "Erro ao buscar transações")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	utils.SendJSON(w, txs, http.StatusOK)
}

// HandleAddTransaction records a movement. Price zero is allowed (bonus
// shares); quantity must be positive.
func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in struct {
		services.TransactionInput
		Quantity *float64 `json:"quantity"`
		Price    *float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if in.PortfolioID == "" || in.AssetID == "" || in.Type == "" || in.Ticker == "" ||
		in.Quantity == nil || in.Price == nil || in.Date == "" {
		utils.SendJSONError(w, "Campos obrigatórios: portfolioId, assetId, type, ticker, quantity, price, date", http.StatusBadRequest)
		return
	}
	in.TransactionInput.Quantity = *in.Quantity
	in.TransactionInput.Price = *in.Price

	tx, err := h.service.CreateTransaction(r.Context(), userID, in.TransactionInput)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao criar transação")
		return
	}
	logger.FromContext(r.Context()).Info("Transaction added", "transactionID", tx.ID, "ticker", tx.Ticker, "type", tx.Type)
	utils.SendJSONMessage(w, tx, "Transação criada com sucesso", http.StatusCreated)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	portfolioID := r.URL.Query().Get("portfolioId")
	if portfolioID == "" {
		utils.SendJSONError(w, "portfolioId é obrigatório", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), userID, portfolioID, chi.URLParam(r, "id")); err != nil {
		sendServiceError(w, r, err, "Erro ao deletar transação")
		return
	}
	utils.SendJSONMessage(w, nil, "Transação deletada com sucesso", http.StatusOK)
}
