package httputil

import (
	"encoding/json"
	"net/http"
)

// Every response from the engagement API carries a success flag; failures
// additionally carry a human-readable message and nothing else.
type FailureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, FailureBody{Success: false, Message: message})
}
