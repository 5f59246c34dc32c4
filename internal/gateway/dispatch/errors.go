package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/aussiebroadwan/courtside/pkg/httpx"
)

const (
	outcomeOK             = "ok"
	outcomeTimeout        = "timeout"
	outcomeUnavailable    = "unavailable"
	outcomeError          = "error"
	outcomeCanceled       = "canceled"
	outcomeUnknownBackend = "unknown_backend"
	outcomeTooLarge       = "too_large"
	outcomeBadRequest     = "bad_request"
)

// classify maps a transport failure to the response the caller sees. The
// message never includes err.
func classify(err error, backend string) (code int, kind, message, outcome string) {
	switch {
	case isTimeout(err):
		return http.StatusGatewayTimeout, httpx.KindBackendTimeout,
			fmt.Sprintf("backend %q did not respond in time", backend), outcomeTimeout
	case isConnectFailure(err):
		return http.StatusServiceUnavailable, httpx.KindBackendUnavailable,
			fmt.Sprintf("backend %q is unavailable", backend), outcomeUnavailable
	default:
		return http.StatusInternalServerError, httpx.KindGatewayInternalError,
			"the gateway could not complete the request", outcomeError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnectFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
