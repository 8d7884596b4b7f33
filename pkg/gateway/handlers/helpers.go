package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reconnect-ai/coachd/pkg/gateway/mw"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	writeJSON(w, status, errorResponse{Error: msg, RequestID: reqID})
}
