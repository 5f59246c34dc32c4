package httpx

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecurityHeaders sets the browser hardening headers. HSTS is only added in
// production and only on requests that arrived over TLS.
func SecurityHeaders(production bool) Middleware {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	if production {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}
	s := secure.New(opts)

	return func(next http.Handler) http.Handler {
		return s.Handler(next)
	}
}
