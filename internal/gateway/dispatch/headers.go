package dispatch

import (
	"net/http"
	"net/textproto"
	"strings"
)

// hopHeaders apply to a single connection and are never forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// copyHeaders appends src to dst minus Host, Content-Length, hop-by-hop
// headers and anything src's Connection header names.
func copyHeaders(dst, src http.Header) {
	listed := connectionTokens(src)
	for k, vv := range src {
		switch {
		case k == "Host", k == "Content-Length":
			continue
		case hopHeaders[k], listed[k]:
			continue
		case strings.HasPrefix(k, "Proxy-"):
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func connectionTokens(h http.Header) map[string]bool {
	values := h.Values("Connection")
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]bool)
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				out[textproto.CanonicalMIMEHeaderKey(tok)] = true
			}
		}
	}
	return out
}
