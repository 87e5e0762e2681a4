package http

import (
	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/weather"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
)

func toCoordinate(c *domain.Coordinate) *minglesdk.Coordinate {
	if c == nil {
		return nil
	}
	return &minglesdk.Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

func fromCoordinate(c *minglesdk.Coordinate) *domain.Coordinate {
	if c == nil {
		return nil
	}
	return &domain.Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

func toUserResponse(u domain.User) minglesdk.UserResponse {
	return minglesdk.UserResponse{
		ID:           u.ID.String(),
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		Age:          u.Age,
		LastLocation: toCoordinate(u.LastLocation),
	}
}

func toForecastResponse(f *weather.Forecast) *minglesdk.ForecastResponse {
	if f == nil {
		return nil
	}
	return &minglesdk.ForecastResponse{High: f.High, Low: f.Low, Summary: f.Summary()}
}

// toEventResponse renders e as v sees it. The address and coordinate are held
// back from viewers who are not approved, and so is the distance from from,
// which would otherwise pin the location down. Guest lists only go to the host.
func toEventResponse(e domain.Event, v domain.Viewer, hostName string, from *domain.Coordinate) minglesdk.EventResponse {
	approved := e.IsApproved(v)
	host := e.IsHost(v.UserID)

	resp := minglesdk.EventResponse{
		ID:               e.ID.String(),
		HostID:           e.HostID.String(),
		HostName:         hostName,
		Title:            e.Title,
		Date:             e.Date,
		City:             e.City,
		Address:          e.DisplayAddress(v),
		Description:      e.Description,
		IsPublic:         e.IsPublic,
		IsHost:           host,
		IsApproved:       approved,
		CanRSVP:          e.CanRSVP(v),
		CanRequestAccess: e.CanRequestAccess(v),
	}

	if approved {
		resp.Location = toCoordinate(e.Location)
		if e.Location != nil && from != nil {
			d := domain.DistanceMiles(*from, *e.Location)
			resp.DistanceMiles = &d
		}
	}

	if host {
		resp.RSVPs = make([]minglesdk.RSVPResponse, len(e.RSVPs))
		for i, r := range e.RSVPs {
			resp.RSVPs[i] = minglesdk.RSVPResponse{
				Email:     r.Email,
				Name:      r.Name,
				Age:       r.Age,
				PartySize: r.PartySize,
				Status:    string(r.Status),
			}
		}
		resp.AccessRequests = make([]minglesdk.AccessRequestResponse, len(e.AccessRequests))
		for i, a := range e.AccessRequests {
			resp.AccessRequests[i] = minglesdk.AccessRequestResponse{
				ID:        a.ID.String(),
				Email:     a.Email,
				CreatedAt: a.CreatedAt,
				Status:    string(a.Status),
			}
		}
		sum := e.RSVPSummary()
		resp.Summary = &minglesdk.RSVPSummaryResponse{
			Total:    sum.Total,
			Going:    sum.Going,
			Maybe:    sum.Maybe,
			NotGoing: sum.NotGoing,
		}
	}
	return resp
}
