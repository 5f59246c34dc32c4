package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreachable wraps transport failures: the service could not be asked.
var ErrUnreachable = errors.New("authsdk: service unreachable")

// APIError is a non-2xx answer from a courtside service.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authsdk: %d %s: %s", e.StatusCode, e.Kind, e.Message)
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// parseErrorResponse turns an error body into an *APIError. It understands
// the courtside envelope and the {"detail": ...} shape older services emit.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Kind = envelope.Error
		apiErr.Message = envelope.Message
		if apiErr.Message == "" && envelope.Detail != nil {
			apiErr.Message = fmt.Sprint(envelope.Detail)
		}
	}

	if apiErr.Kind == "" {
		apiErr.Kind = http.StatusText(resp.StatusCode)
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return apiErr
}
