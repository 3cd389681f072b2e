package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/assistantkit/backend/internal/ingest"
	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/training"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service failures onto HTTP statuses: typed
// absences to 404, state conflicts to 409, rejected input to 400,
// upstream model/store failures to 502, everything else to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, training.ErrNotRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ingest.ErrUnsupportedMediaType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrUnsupported):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
