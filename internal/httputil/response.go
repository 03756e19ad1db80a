package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code and payload.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// WriteError writes the {"success":false,"error":...} envelope the chat and
// smart-query endpoints use.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{"success": false, "error": message})
}

// WriteData writes the {"success":true,"count":n,"data":...} list envelope.
func WriteData(w http.ResponseWriter, status int, count int, data any) {
	WriteJSON(w, status, map[string]any{"success": true, "count": count, "data": data})
}
