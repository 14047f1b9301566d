package handlers

import (
	"net/http"
	"time"

	"github.com/cgscacau/yieldlab/src/utils"
)

const ServiceName = "YieldLab API"

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   ServiceName,
	}, http.StatusOK)
}
