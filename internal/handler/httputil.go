// Package handler implements the HTTP surface of the gig wizard: session
// lifecycle, step navigation, draft handling, commit and committed-gig reads.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/wizard"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseActor extracts the acting user from the X-Actor header.
func parseActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := r.Header.Get("X-Actor")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ACTOR", "X-Actor header is required")
		return "", false
	}
	return actor, true
}

// parseLimit reads a positive integer query parameter capped at max.
func parseLimit(r *http.Request, name string, def, max int) int {
	n := def
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	if n > max {
		n = max
	}
	return n
}

// wizardErrorToHTTP maps wizard and repository errors to HTTP responses.
func wizardErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, gig.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, wizard.ErrCommitInFlight):
		writeError(w, http.StatusConflict, "COMMIT_IN_FLIGHT", err.Error())
	case errors.Is(err, wizard.ErrNotMounted):
		writeError(w, http.StatusConflict, "NOT_MOUNTED", err.Error())
	case errors.Is(err, wizard.ErrCommitFailed):
		log.Printf("commit error: %v", err)
		writeError(w, http.StatusBadGateway, "COMMIT_FAILED", "failed to save gig, please try again")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
