package utils

import (
	"encoding/json"
	"net/http"

	"github.com/cgscacau/yieldlab/src/logger"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SendJSON writes a success envelope.
func SendJSON(w http.ResponseWriter, data any, status int) {
	writeEnvelope(w, Envelope{Success: true, Data: data}, status)
}

// SendJSONMessage writes a success envelope carrying a message next to the data.
func SendJSONMessage(w http.ResponseWriter, data any, message string, status int) {
	writeEnvelope(w, Envelope{Success: true, Data: data, Message: message}, status)
}

// SendJSONError writes a failure envelope. The message is user facing.
func SendJSONError(w http.ResponseWriter, message string, status int) {
	writeEnvelope(w, Envelope{Success: false, Error: message}, status)
}

func writeEnvelope(w http.ResponseWriter, env Envelope, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.L.Error("Failed to encode response", "status", status, "error", err)
	}
}
