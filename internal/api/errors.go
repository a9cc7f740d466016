package api

import (
	"encoding/json"
	"net/http"
)

// Stable error codes surfaced to clients. Handlers pick the HTTP status;
// the code carries the taxonomy.
const (
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeChecklistIncomplete = "CHECKLIST_INCOMPLETE"
	CodeExpired             = "EXPIRED"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the standard response shape: {success, message?, data?, error?, meta?}.
type Envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    any       `json:"meta,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

func WriteData(w http.ResponseWriter, status int, message string, data any) {
	WriteDataMeta(w, status, message, data, nil)
}

func WriteDataMeta(w http.ResponseWriter, status int, message string, data any, meta any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// UpstreamError marks a collaborator (identity store, dispatcher, DB)
// timeout or outage, so middleware and handlers can answer 503 instead
// of mislabeling it as an auth or validation failure.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return e.Op + ": upstream unavailable"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }
