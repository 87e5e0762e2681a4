package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/pkg/httpx"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe. Pings the storage driver holding the snapshot.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	minglesdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	minglesdk.HealthResponse	"storage unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, blobs store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &minglesdk.HealthChecks{Storage: "ok"}
		status, code := "ok", http.StatusOK

		if err := blobs.Ping(r.Context()); err != nil {
			checks.Storage = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, minglesdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
