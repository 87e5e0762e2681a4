package domain

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/mingle/pkg/idx"
)

// Event is hosted by one user. City is always public; FullAddress is only
// disclosed to the host and approved guests (see DisplayAddress). RSVPs and
// AccessRequests are owned by the event and have no life outside it.
type Event struct {
	ID             idx.ID          `json:"id"`
	HostID         idx.ID          `json:"hostID"`
	Title          string          `json:"title"`
	Date           time.Time       `json:"date"`
	City           string          `json:"city"`
	FullAddress    *string         `json:"fullAddress,omitempty"`
	Description    *string         `json:"description,omitempty"`
	IsPublic       bool            `json:"isPublic"`
	Location       *Coordinate     `json:"location,omitempty"`
	RSVPs          []GuestRSVP     `json:"rsvps"`
	AccessRequests []AccessRequest `json:"accessRequests"`
	ApprovedGuests []string        `json:"approvedGuests"`
}

// Clone returns a deep copy so callers never alias store-owned slices.
func (e Event) Clone() Event {
	out := e
	out.FullAddress = clonePtr(e.FullAddress)
	out.Description = clonePtr(e.Description)
	out.Location = clonePtr(e.Location)

	out.RSVPs = make([]GuestRSVP, len(e.RSVPs))
	for i, r := range e.RSVPs {
		out.RSVPs[i] = r.Clone()
	}
	out.AccessRequests = slices.Clone(e.AccessRequests)
	if out.AccessRequests == nil {
		out.AccessRequests = []AccessRequest{}
	}
	out.ApprovedGuests = slices.Clone(e.ApprovedGuests)
	if out.ApprovedGuests == nil {
		out.ApprovedGuests = []string{}
	}
	return out
}

// Address returns the full address, or "" when none is set.
func (e Event) Address() string {
	if e.FullAddress == nil {
		return ""
	}
	return *e.FullAddress
}

// RSVPIndex returns the position of the RSVP for email, or -1.
func (e Event) RSVPIndex(email string) int {
	return slices.IndexFunc(e.RSVPs, func(r GuestRSVP) bool { return r.Email == email })
}

// RequestIndexByEmail returns the position of email's access request, or -1.
func (e Event) RequestIndexByEmail(email string) int {
	return slices.IndexFunc(e.AccessRequests, func(r AccessRequest) bool { return r.Email == email })
}

// RequestIndex returns the position of the access request with id, or -1.
func (e Event) RequestIndex(id idx.ID) int {
	return slices.IndexFunc(e.AccessRequests, func(r AccessRequest) bool { return r.ID == id })
}

// PendingRequests lists requests still awaiting a decision, in arrival order.
func (e Event) PendingRequests() []AccessRequest {
	var out []AccessRequest
	for _, r := range e.AccessRequests {
		if r.Status == AccessPending {
			out = append(out, r)
		}
	}
	return out
}

// Approve adds email to the approved set unless it is already present.
func (e *Event) Approve(email string) {
	if email == "" || slices.Contains(e.ApprovedGuests, email) {
		return
	}
	e.ApprovedGuests = append(e.ApprovedGuests, email)
}

// UpsertRSVP overwrites the RSVP with the same email in place, or appends.
func (e *Event) UpsertRSVP(r GuestRSVP) {
	if i := e.RSVPIndex(r.Email); i >= 0 {
		e.RSVPs[i] = r
		return
	}
	e.RSVPs = append(e.RSVPs, r)
}

// RSVPSummary adds up party sizes per status.
func (e Event) RSVPSummary() RSVPSummary {
	var s RSVPSummary
	for _, r := range e.RSVPs {
		s.Total += r.PartySize
		switch r.Status {
		case RSVPGoing:
			s.Going += r.PartySize
		case RSVPMaybe:
			s.Maybe += r.PartySize
		case RSVPNotGoing:
			s.NotGoing += r.PartySize
		}
	}
	return s
}
