package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every call made by a client built with NewClient
// and a zero timeout.
const DefaultTimeout = 10 * time.Second

// Client talks to one courtside service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with its own bounded http.Client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}
