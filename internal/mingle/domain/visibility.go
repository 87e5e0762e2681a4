package domain

import (
	"slices"

	"github.com/aussiebroadwan/mingle/pkg/idx"
)

// Viewer is whoever is looking at an event. Either field may be empty,
// meaning unknown.
type Viewer struct {
	Email  string
	UserID idx.ID
}

// IsHost reports whether userID owns the event.
func (e Event) IsHost(userID idx.ID) bool {
	return !userID.IsZero() && userID == e.HostID
}

// IsApproved reports whether v may see the full address. The host always is,
// whether or not their email is in the approved set.
func (e Event) IsApproved(v Viewer) bool {
	if v.Email != "" && slices.Contains(e.ApprovedGuests, v.Email) {
		return true
	}
	return e.IsHost(v.UserID)
}

// DisplayAddress is "<fullAddress>, <city>" for approved viewers when an
// address is set, and just the city otherwise.
func (e Event) DisplayAddress(v Viewer) string {
	if addr := e.Address(); addr != "" && e.IsApproved(v) {
		return addr + ", " + e.City
	}
	return e.City
}

// CanRSVP reports whether v may RSVP: the event is public or v is approved,
// and v is not the host.
func (e Event) CanRSVP(v Viewer) bool {
	if e.IsHost(v.UserID) {
		return false
	}
	return e.IsPublic || e.IsApproved(v)
}

// CanRequestAccess reports whether v should be offered an access request:
// only on private events, for viewers neither approved nor hosting.
func (e Event) CanRequestAccess(v Viewer) bool {
	return !e.IsPublic && !e.IsApproved(v) && !e.IsHost(v.UserID)
}
