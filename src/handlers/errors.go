package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
)

// sendServiceError maps service errors onto the envelope. Validation
// messages are safe to echo; anything unexpected is logged and hidden.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.SendJSONError(w, validationMessage(err), http.StatusBadRequest)
	case errors.Is(err, services.ErrAccessDenied):
		utils.SendJSONError(w, "Acesso negado", http.StatusForbidden)
	case errors.Is(err, services.ErrQuoteNotFound):
		utils.SendJSONError(w, "Cotação não encontrada", http.StatusNotFound)
	default:
		logger.FromContext(r.Context()).Error(fallback, "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, fallback, http.StatusInternalServerError)
	}
}

// validationMessage drops the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, services.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(services.ErrValidation.Error())+2:]
	}
	return msg
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
	}
	return userID, ok
}
