package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds request bodies; feedback requests carry whole decks
// with inline images.
const maxBodyBytes = 16 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
