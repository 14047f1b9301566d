package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
	"github.com/go-chi/chi/v5"
)

type AssetHandler struct {
	service services.PortfolioService
}

func NewAssetHandler(service services.PortfolioService) *AssetHandler {
	return &AssetHandler{service: service}
}

func (h *AssetHandler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	assets, err := h.service.ListAssets(r.Context(), userID, chi.URLParam(r, "portfolioId"))
	if err != nil {
		sendServiceError(w, r, err, "Erro ao buscar ativos")
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	utils.SendJSON(w, assets, http.StatusOK)
}

func (h *AssetHandler) HandleCreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in services.AssetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if in.PortfolioID == "" || in.Ticker == "" || in.Name == "" || in.Type == "" {
		utils.SendJSONError(w, "Campos obrigatórios: portfolioId, ticker, name, type", http.StatusBadRequest)
		return
	}
	asset, err := h.service.CreateAsset(r.Context(), userID, in)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao criar ativo")
		return
	}
	utils.SendJSONMessage(w, asset, "Ativo criado com sucesso", http.StatusCreated)
}

func (h *AssetHandler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var upd models.AssetUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	asset, err := h.service.UpdateAsset(r.Context(), userID, chi.URLParam(r, "id"), upd)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao atualizar ativo")
		return
	}
	utils.SendJSONMessage(w, asset, "Ativo atualizado com sucesso", http.StatusOK)
}

func (h *AssetHandler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAsset(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		sendServiceError(w, r, err, "Erro ao deletar ativo")
		return
	}
	utils.SendJSONMessage(w, nil, "Ativo deletado com sucesso", http.StatusOK)
}

// HandleRecalculateAsset rebuilds quantity and average cost from history.
func (h *AssetHandler) HandleRecalculateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	asset, err := h.service.RecalculateAsset(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, err, "Erro ao recalcular ativo")
		return
	}
	utils.SendJSONMessage(w, asset, "Ativo recalculado com sucesso", http.StatusOK)
}
