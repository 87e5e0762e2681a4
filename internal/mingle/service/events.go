package service

import (
	"context"
	"slices"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/pkg/idx"
)

type NewEventParams struct {
	Title       string
	Date        time.Time
	City        string
	FullAddress *string
	Description *string
	IsPublic    bool
	Location    *domain.Coordinate
}

// CreateEvent adds an event hosted by the logged-in user, with the host's
// email already approved. Without a session nothing happens and ok is false.
func (s *DomainStore) CreateEvent(ctx context.Context, p NewEventParams) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	host, ok := s.currentUser()
	if !ok {
		return domain.Event{}, false
	}

	e := domain.Event{
		ID:             idx.New(),
		HostID:         host.ID,
		Title:          p.Title,
		Date:           p.Date,
		City:           p.City,
		FullAddress:    p.FullAddress,
		Description:    p.Description,
		IsPublic:       p.IsPublic,
		Location:       p.Location,
		RSVPs:          []domain.GuestRSVP{},
		AccessRequests: []domain.AccessRequest{},
		ApprovedGuests: []string{},
	}
	e.Approve(host.Email)
	e = e.Clone()

	s.events = append(s.events, e)
	s.persist(ctx)

	s.logger.Info("event created", "event_id", e.ID, "host_id", host.ID)
	return e.Clone(), true
}

// UpdateEvent replaces the stored event with the same id wholesale. Unknown
// ids are ignored.
func (s *DomainStore) UpdateEvent(ctx context.Context, e domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex(e.ID)
	if !ok {
		return false
	}
	s.events[i] = e.Clone()
	s.persist(ctx)
	return true
}

func (s *DomainStore) DeleteEvent(ctx context.Context, id idx.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex(id)
	if !ok {
		return false
	}
	s.events = slices.Delete(s.events, i, i+1)
	s.persist(ctx)
	return true
}

// EventsForCurrentUser lists the events the logged-in user hosts, in storage
// order. It is empty without a session.
func (s *DomainStore) EventsForCurrentUser() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userIndex(s.session); !ok {
		return []domain.Event{}
	}

	out := []domain.Event{}
	for _, e := range s.events {
		if e.HostID == s.session {
			out = append(out, e.Clone())
		}
	}
	return out
}

// FilteredEvents searches all events by text and distance. The distance is
// measured from userCoordinate when given, else the live location, else the
// logged-in user's last known location; with none of those every event passes
// the distance check.
func (s *DomainStore) FilteredEvents(searchText string, maxDistanceMiles float64, userCoordinate *domain.Coordinate) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[idx.ID]string, len(s.users))
	for _, u := range s.users {
		names[u.ID] = u.Name
	}

	return cloneEvents(domain.FilterEvents(s.events, names, domain.SearchQuery{
		Text:             searchText,
		MaxDistanceMiles: maxDistanceMiles,
		From:             s.effectiveCoordinate(userCoordinate),
	}))
}

// EffectiveCoordinate is the point FilteredEvents measures from for the given
// explicit coordinate, or nil when none is known.
func (s *DomainStore) EffectiveCoordinate(explicit *domain.Coordinate) *domain.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.effectiveCoordinate(explicit); c != nil {
		v := *c
		return &v
	}
	return nil
}

func (s *DomainStore) effectiveCoordinate(explicit *domain.Coordinate) *domain.Coordinate {
	if explicit != nil {
		return explicit
	}
	if s.live != nil {
		return s.live
	}
	if u, ok := s.currentUser(); ok {
		return u.LastLocation
	}
	return nil
}
