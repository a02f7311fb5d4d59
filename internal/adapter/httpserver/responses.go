package httpserver

import (
	"encoding/json"
	"net/http"
)

// replyEnvelope is the chat response shape; Error is set only on provider failure.
type replyEnvelope struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// errorBody is the response shape of rejected chat requests.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
