package health

import (
	"net/http"

	"github.com/aussiebroadwan/courtside/pkg/httpx"
)

// Handler serves GET /services/status. The gateway itself is up whenever it
// can answer, so the status code is always 200.
func (a *Aggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, a.CheckAll(r.Context()))
	}
}
