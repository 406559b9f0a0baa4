package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"media-librarian/internal/fileops"
	"media-librarian/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error("failed to encode JSON error response: %v", err)
	}
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSON(w, map[string]string{"status": status})
}

// errorResponse is the typed error payload. Reason carries the operation
// failure code; Conflict carries the existing name on a 409.
type errorResponse struct {
	Error    string `json:"error"`
	Reason   string `json:"reason,omitempty"`
	Conflict string `json:"conflict,omitempty"`
}

// writeTypedError maps the error taxonomy onto HTTP statuses: conflicts are
// 409, not-found 404, invalid names and unsupported targets 400, operation
// failures 500.
func writeTypedError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var conflict *fileops.ConflictError
	var opErr *fileops.OperationError
	switch {
	case errors.As(err, &conflict):
		status = http.StatusConflict
		resp.Conflict = conflict.Existing
	case errors.Is(err, fileops.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fileops.ErrInvalidName), errors.Is(err, fileops.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.As(err, &opErr):
		resp.Reason = opErr.Reason
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logging.Error("failed to encode JSON error response: %v", encErr)
	}
}

// decodeBody decodes a JSON request body into v, answering 400 on failure.
// Returns false when the response has already been written.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
