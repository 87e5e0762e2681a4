package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/pkg/httpx"
	"github.com/aussiebroadwan/mingle/pkg/idx"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
)

// GuestsHandler serves RSVPs and access requests.
type GuestsHandler struct {
	Store *service.DomainStore
}

// HandleRSVP handles POST /v1/events/{id}/rsvps
//
//	@Summary		RSVP
//	@Description	RSVP as the logged-in user. A repeat RSVP replaces the earlier one.
//	@Description	Private events require the user's email to be approved; hosts cannot RSVP to their own events.
//	@Tags			Guests
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Event ID"
//	@Param			request	body		minglesdk.RSVPRequest	true	"RSVP"
//	@Success		200		{object}	minglesdk.EventResponse
//	@Failure		400		{object}	minglesdk.ValidationErrorResponse
//	@Failure		401		{object}	minglesdk.ErrorResponse	"not logged in"
//	@Failure		403		{object}	minglesdk.ErrorResponse	"not eligible"
//	@Failure		404		{object}	minglesdk.ErrorResponse
//	@Router			/v1/events/{id}/rsvps [post].
func (h *GuestsHandler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, ok := requireUser(h.Store, w)
	if !ok {
		return
	}
	e, ok := loadEvent(h.Store, w, r)
	if !ok {
		return
	}

	var req minglesdk.RSVPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !e.CanRSVP(u.Viewer()) {
		writeForbidden(w, "You cannot RSVP to this event")
		return
	}

	name := req.Name
	if name == nil {
		name = &u.Name
	}
	age := req.Age
	if age == nil {
		age = u.Age
	}

	if !h.Store.SubmitRSVP(ctx, service.RSVPParams{
		EventID:   e.ID,
		Email:     u.Email,
		Name:      name,
		Age:       age,
		PartySize: req.PartySize,
		Status:    domain.RSVPStatus(req.Status),
	}) {
		// The event or the user's eligibility changed since we looked.
		writeForbidden(w, "You cannot RSVP to this event")
		return
	}

	updated, ok := h.Store.Event(e.ID)
	if !ok {
		writeNotFound(w, "Event")
		return
	}
	slogx.FromContext(ctx).Info("rsvp recorded", "event_id", e.ID, "status", req.Status)
	httpx.WriteJSON(w, http.StatusOK, toEventResponse(updated, u.Viewer(), hostNames(h.Store)(updated.HostID), u.LastLocation))
}

// HandleAccessRequest handles POST /v1/events/{id}/access-requests
//
//	@Summary		Request access
//	@Description	Asks the host of a private event to reveal the address. The email defaults to the viewer's.
//	@Description	Repeat requests from the same email are accepted and ignored.
//	@Tags			Guests
//	@Accept			json
//	@Param			id				path	string							true	"Event ID"
//	@Param			X-Guest-Email	header	string							false	"Guest identity for anonymous viewers"
//	@Param			request			body	minglesdk.AccessRequestRequest	true	"Email to approve"
//	@Success		202
//	@Failure		400	{object}	minglesdk.ValidationErrorResponse
//	@Failure		404	{object}	minglesdk.ErrorResponse
//	@Failure		409	{object}	minglesdk.ErrorResponse	"event is public"
//	@Router			/v1/events/{id}/access-requests [post].
func (h *GuestsHandler) HandleAccessRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e, ok := loadEvent(h.Store, w, r)
	if !ok {
		return
	}

	var req minglesdk.AccessRequestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	viewer := viewerFor(h.Store, r)
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = viewer.Email
	}
	if email == "" {
		minglesdk.WriteValidationError(w, map[string]string{"email": "required"})
		return
	}

	if e.IsPublic {
		minglesdk.NewAPIError(http.StatusConflict, minglesdk.ErrorCodeConflict, "Event is public").WriteError(w)
		return
	}

	if h.Store.SubmitAccessRequest(ctx, e.ID, email) {
		slogx.FromContext(ctx).Info("access requested", "event_id", e.ID)
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleApprove handles POST /v1/events/{id}/access-requests/{requestID}/approve
//
//	@Summary		Approve access request
//	@Description	Host only. The requester's email joins the approved guests. Only pending requests can be decided.
//	@Tags			Guests
//	@Produce		json
//	@Param			id			path		string	true	"Event ID"
//	@Param			requestID	path		string	true	"Access request ID"
//	@Success		200			{object}	minglesdk.EventResponse
//	@Failure		401			{object}	minglesdk.ErrorResponse	"not logged in"
//	@Failure		403			{object}	minglesdk.ErrorResponse	"not the host"
//	@Failure		404			{object}	minglesdk.ErrorResponse
//	@Failure		409			{object}	minglesdk.ErrorResponse	"already decided"
//	@Router			/v1/events/{id}/access-requests/{requestID}/approve [post].
func (h *GuestsHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Store.ApproveRequest)
}

// HandleDeny handles POST /v1/events/{id}/access-requests/{requestID}/deny
//
//	@Summary		Deny access request
//	@Description	Host only. Only pending requests can be decided.
//	@Tags			Guests
//	@Produce		json
//	@Param			id			path		string	true	"Event ID"
//	@Param			requestID	path		string	true	"Access request ID"
//	@Success		200			{object}	minglesdk.EventResponse
//	@Failure		401			{object}	minglesdk.ErrorResponse	"not logged in"
//	@Failure		403			{object}	minglesdk.ErrorResponse	"not the host"
//	@Failure		404			{object}	minglesdk.ErrorResponse
//	@Failure		409			{object}	minglesdk.ErrorResponse	"already decided"
//	@Router			/v1/events/{id}/access-requests/{requestID}/deny [post].
func (h *GuestsHandler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Store.DenyRequest)
}

type decideFunc func(ctx context.Context, eventID, requestID idx.ID) bool

func (h *GuestsHandler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	u, e, ok := loadHostedEvent(h.Store, w, r)
	if !ok {
		return
	}

	requestID, err := idx.Parse(r.PathValue("requestID"))
	if err != nil || e.RequestIndex(requestID) < 0 {
		writeNotFound(w, "Access request")
		return
	}

	if !fn(r.Context(), e.ID, requestID) {
		minglesdk.NewAPIError(http.StatusConflict, minglesdk.ErrorCodeConflict, "Access request was already decided").WriteError(w)
		return
	}

	updated, ok := h.Store.Event(e.ID)
	if !ok {
		writeNotFound(w, "Event")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEventResponse(updated, u.Viewer(), u.Name, u.LastLocation))
}
