// Package handler exposes the stores over HTTP per the API contract.
// Validation failures short-circuit with 400 and a {message, field} body;
// unknown ids surface as 404, duplicate completions as 409.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// apiError is the contract error body. Field is set only for validation
// errors and names the first offending input field.
type apiError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

func writeFieldError(w http.ResponseWriter, message, field string) {
	writeJSON(w, http.StatusBadRequest, apiError{Message: message, Field: field})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// isValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func isValidDate(s string) bool {
	if len(s) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// isValidMonth reports whether s is a month in YYYY-MM form.
func isValidMonth(s string) bool {
	if len(s) != len("2006-01") {
		return false
	}
	_, err := time.Parse("2006-01", s)
	return err == nil
}
