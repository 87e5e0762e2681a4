package http

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/geocode"
	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/internal/mingle/weather"
	"github.com/aussiebroadwan/mingle/pkg/httpx"
	"github.com/aussiebroadwan/mingle/pkg/idx"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
)

// EventsHandler serves event browsing and the host's event management.
type EventsHandler struct {
	Store              *service.DomainStore
	Geolocator         *service.Geolocator
	Forecaster         Forecaster
	FallbackCoordinate domain.Coordinate
	ForecastTimeout    time.Duration
}

// HandleCreate handles POST /v1/events
//
//	@Summary		Create event
//	@Description	Creates an event hosted by the logged-in user. The address is geocoded in the background.
//	@Tags			Events
//	@Accept			json
//	@Produce		json
//	@Param			request	body		minglesdk.EventRequest				true	"Event"
//	@Success		201		{object}	minglesdk.EventResponse
//	@Failure		400		{object}	minglesdk.ValidationErrorResponse
//	@Failure		401		{object}	minglesdk.ErrorResponse	"not logged in"
//	@Router			/v1/events [post].
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, ok := requireUser(h.Store, w)
	if !ok {
		return
	}

	var req minglesdk.EventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	e, ok := h.Store.CreateEvent(ctx, service.NewEventParams{
		Title:       strings.TrimSpace(req.Title),
		Date:        req.Date,
		City:        strings.TrimSpace(req.City),
		FullAddress: trimmed(req.FullAddress),
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Location:    fromCoordinate(req.Location),
	})
	if !ok {
		minglesdk.NewAPIError(http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized, "Not logged in").WriteError(w)
		return
	}

	if e.Location == nil {
		h.locate(ctx, e)
	}

	httpx.WriteJSON(w, http.StatusCreated, toEventResponse(e, u.Viewer(), u.Name, u.LastLocation))
}

// HandleList handles GET /v1/events
//
//	@Summary		Search events
//	@Description	Matches q against title, city, address and host name. max_miles applies when a location is known:
//	@Description	lat/lon, else the last reported device location, else the user's saved location.
//	@Tags			Events
//	@Produce		json
//	@Param			q			query		string	false	"Search text"
//	@Param			max_miles	query		number	false	"Maximum distance in miles, no limit when omitted"
//	@Param			lat			query		number	false	"Latitude to measure from"
//	@Param			lon			query		number	false	"Longitude to measure from"
//	@Param			X-Guest-Email	header	string	false	"Guest identity for anonymous viewers"
//	@Success		200			{object}	minglesdk.EventListResponse
//	@Failure		400			{object}	minglesdk.ValidationErrorResponse
//	@Router			/v1/events [get].
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errs := map[string]string{}

	// No max_miles means no radius.
	maxMiles := math.Inf(1)
	if s := q.Get("max_miles"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			errs["max_miles"] = "must be a non-negative number"
		}
		maxMiles = v
	}

	var from *domain.Coordinate
	if q.Get("lat") != "" || q.Get("lon") != "" {
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		c := domain.Coordinate{Latitude: lat, Longitude: lon}
		if errLat != nil || errLon != nil || !c.Valid() {
			errs["lat"] = "lat and lon must form a valid coordinate"
		}
		from = &c
	}

	if len(errs) > 0 {
		minglesdk.WriteValidationError(w, errs)
		return
	}

	viewer := viewerFor(h.Store, r)
	events := h.Store.FilteredEvents(q.Get("q"), maxMiles, from)
	from = h.Store.EffectiveCoordinate(from)
	resp := minglesdk.EventListResponse{Events: make([]minglesdk.EventResponse, len(events))}
	hostName := hostNames(h.Store)
	for i, e := range events {
		resp.Events[i] = toEventResponse(e, viewer, hostName(e.HostID), from)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /v1/events/{id}
//
//	@Summary		Event detail
//	@Description	The address is shown in full only to the host and approved guests. Includes a best effort forecast.
//	@Tags			Events
//	@Produce		json
//	@Param			id				path		string	true	"Event ID"
//	@Param			X-Guest-Email	header		string	false	"Guest identity for anonymous viewers"
//	@Success		200				{object}	minglesdk.EventResponse
//	@Failure		404				{object}	minglesdk.ErrorResponse
//	@Router			/v1/events/{id} [get].
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := loadEvent(h.Store, w, r)
	if !ok {
		return
	}

	viewer := viewerFor(h.Store, r)
	resp := toEventResponse(e, viewer, hostNames(h.Store)(e.HostID), h.Store.EffectiveCoordinate(nil))
	resp.Forecast = toForecastResponse(h.forecast(r.Context(), e))
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PUT /v1/events/{id}
//
//	@Summary		Edit event
//	@Description	Host only. Guest lists are kept. A changed address is geocoded again.
//	@Tags			Events
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Event ID"
//	@Param			request	body		minglesdk.EventRequest	true	"Event"
//	@Success		200		{object}	minglesdk.EventResponse
//	@Failure		400		{object}	minglesdk.ValidationErrorResponse
//	@Failure		401		{object}	minglesdk.ErrorResponse	"not logged in"
//	@Failure		403		{object}	minglesdk.ErrorResponse	"not the host"
//	@Failure		404		{object}	minglesdk.ErrorResponse
//	@Router			/v1/events/{id} [put].
func (h *EventsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, e, ok := loadHostedEvent(h.Store, w, r)
	if !ok {
		return
	}

	var req minglesdk.EventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	before := geocode.JoinAddress(e.FullAddress, e.City)

	e.Title = strings.TrimSpace(req.Title)
	e.Date = req.Date
	e.City = strings.TrimSpace(req.City)
	e.FullAddress = trimmed(req.FullAddress)
	e.Description = req.Description
	e.IsPublic = req.IsPublic

	moved := geocode.JoinAddress(e.FullAddress, e.City) != before
	switch {
	case req.Location != nil:
		e.Location = fromCoordinate(req.Location)
	case moved:
		e.Location = nil
	}

	if !h.Store.UpdateEvent(ctx, e) {
		writeNotFound(w, "Event")
		return
	}
	if req.Location != nil && h.Geolocator != nil {
		h.Geolocator.Forget(e.ID)
	} else if moved {
		h.locate(ctx, e)
	}

	httpx.WriteJSON(w, http.StatusOK, toEventResponse(e, u.Viewer(), u.Name, u.LastLocation))
}

// HandleDelete handles DELETE /v1/events/{id}
//
//	@Summary	Delete event
//	@Tags		Events
//	@Param		id	path	string	true	"Event ID"
//	@Success	204
//	@Failure	401	{object}	minglesdk.ErrorResponse	"not logged in"
//	@Failure	403	{object}	minglesdk.ErrorResponse	"not the host"
//	@Failure	404	{object}	minglesdk.ErrorResponse
//	@Router		/v1/events/{id} [delete].
func (h *EventsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, e, ok := loadHostedEvent(h.Store, w, r)
	if !ok {
		return
	}

	if !h.Store.DeleteEvent(r.Context(), e.ID) {
		writeNotFound(w, "Event")
		return
	}
	if h.Geolocator != nil {
		h.Geolocator.Forget(e.ID)
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleShare handles GET /v1/events/{id}/share
//
//	@Summary		Share text
//	@Description	Host only. A plain text invitation including the full address.
//	@Tags			Events
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	minglesdk.ShareResponse
//	@Failure		401	{object}	minglesdk.ErrorResponse	"not logged in"
//	@Failure		403	{object}	minglesdk.ErrorResponse	"not the host"
//	@Failure		404	{object}	minglesdk.ErrorResponse
//	@Router			/v1/events/{id}/share [get].
func (h *EventsHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	_, e, ok := loadHostedEvent(h.Store, w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, minglesdk.ShareResponse{Message: e.ShareMessage()})
}

// hostNames returns a lookup of host display names, memoised for one request.
func hostNames(ds *service.DomainStore) func(idx.ID) string {
	cache := map[idx.ID]string{}
	return func(id idx.ID) string {
		if name, ok := cache[id]; ok {
			return name
		}
		var name string
		if u, ok := ds.User(id); ok {
			name = u.Name
		}
		cache[id] = name
		return name
	}
}

func (h *EventsHandler) locate(ctx context.Context, e domain.Event) {
	if h.Geolocator == nil {
		return
	}
	if h.Geolocator.Locate(ctx, e) {
		slogx.FromContext(ctx).Debug("geocoding event", "event_id", e.ID)
	}
}

// forecast is best effort, bounded by ForecastTimeout.
func (h *EventsHandler) forecast(ctx context.Context, e domain.Event) *weather.Forecast {
	if h.Forecaster == nil {
		return nil
	}

	at := h.FallbackCoordinate
	if e.Location != nil {
		at = *e.Location
	}

	if h.ForecastTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.ForecastTimeout)
		defer cancel()
	}
	return h.Forecaster.FetchForecast(ctx, at.Latitude, at.Longitude)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// loadEvent loads the {id} event, writing a 404 when it does not exist.
func loadEvent(ds *service.DomainStore, w http.ResponseWriter, r *http.Request) (domain.Event, bool) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		writeNotFound(w, "Event")
		return domain.Event{}, false
	}
	e, ok := ds.Event(id)
	if !ok {
		writeNotFound(w, "Event")
		return domain.Event{}, false
	}
	return e, true
}

// loadHostedEvent also checks that the logged-in user hosts the event.
func loadHostedEvent(ds *service.DomainStore, w http.ResponseWriter, r *http.Request) (domain.User, domain.Event, bool) {
	u, ok := requireUser(ds, w)
	if !ok {
		return domain.User{}, domain.Event{}, false
	}
	e, ok := loadEvent(ds, w, r)
	if !ok {
		return domain.User{}, domain.Event{}, false
	}
	if !e.IsHost(u.ID) {
		writeForbidden(w, "Only the host can do that")
		return domain.User{}, domain.Event{}, false
	}
	return u, e, true
}
