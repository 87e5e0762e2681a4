package http

import (
	"net/http"

	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/pkg/cryptox"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
)

type AdminHandler struct {
	Store      *service.DomainStore
	Geolocator *service.Geolocator
	Token      string
}

// HandleReset handles POST /v1/admin/reset
//
//	@Summary		Reset all data
//	@Description	Deletes every user and event and ends the session. Disabled unless an admin token is configured.
//	@Tags			Admin
//	@Param			X-Admin-Token	header	string	true	"Admin token"
//	@Success		204
//	@Failure		401	{object}	minglesdk.ErrorResponse	"wrong token"
//	@Failure		404	{object}	minglesdk.ErrorResponse	"disabled"
//	@Router			/v1/admin/reset [post].
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if h.Token == "" {
		writeNotFound(w, "Endpoint")
		return
	}
	if !cryptox.TokensEqual(r.Header.Get(minglesdk.AdminTokenHeader), h.Token) {
		minglesdk.NewAPIError(http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized, "Invalid admin token").WriteError(w)
		return
	}

	if h.Geolocator != nil {
		for _, e := range h.Store.Events() {
			h.Geolocator.Forget(e.ID)
		}
	}
	h.Store.Reset(r.Context())

	slogx.FromContext(r.Context()).Warn("all data reset")
	w.WriteHeader(http.StatusNoContent)
}
