package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error kinds carried in the "error" field of generated error bodies.
const (
	KindUnauthenticated        = "Unauthenticated"
	KindInsufficientPermission = "InsufficientPermission"
	KindNoRoleAssigned         = "NoRoleAssigned"
	KindNotFound               = "NotFound"
	KindBackendTimeout         = "BackendTimeout"
	KindBackendUnavailable     = "BackendUnavailable"
	KindGatewayInternalError   = "GatewayInternalError"
	KindValidation             = "ValidationError"
	KindAlreadyExists          = "AlreadyExists"
	KindAlreadyGranted         = "AlreadyGranted"
	KindServiceUnavailable     = "ServiceUnavailable"
	KindRateLimited            = "RateLimited"
	KindPayloadTooLarge        = "PayloadTooLarge"
	KindInternal               = "InternalError"
)

// ErrorBody is the envelope for every error this module generates.
type ErrorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteError writes the {"error","message"} envelope.
func WriteError(w http.ResponseWriter, code int, kind, message string) {
	WriteJSON(w, code, ErrorBody{Error: kind, Message: message})
}

// WriteValidationError writes a 400 with per-field details.
func WriteValidationError(w http.ResponseWriter, message string, details map[string]string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{
		Error:   KindValidation,
		Message: message,
		Details: details,
	})
}

// DecodeJSON reads a bounded JSON body into dst and rejects unknown fields
// and trailing data.
func DecodeJSON(r *http.Request, dst any, limit int64) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode body: unexpected trailing data")
	}
	return nil
}
