package server

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"detail": detail}, the error shape the client parses.
func writeError(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// validationError mimics the structured detail list returned for schema violations.
func validationError(field, msg string) []map[string]any {
	return []map[string]any{{
		"loc":  []string{"body", field},
		"msg":  msg,
		"type": "value_error",
	}}
}
