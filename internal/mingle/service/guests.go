package service

import (
	"context"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/pkg/idx"
)

type RSVPParams struct {
	EventID   idx.ID
	Email     string
	Name      *string
	Age       *int
	PartySize int
	Status    domain.RSVPStatus
}

// SubmitRSVP records or replaces the RSVP for p.Email. It is refused without
// a session, from the event's host, on a private event the guest has not been
// approved for, and for party sizes below one. A replacement keeps the
// original position in the list.
func (s *DomainStore) SubmitRSVP(ctx context.Context, p RSVPParams) bool {
	if p.Email == "" || p.PartySize < 1 || !p.Status.Valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userIndex(s.session); !ok {
		return false
	}
	i, ok := s.eventIndex(p.EventID)
	if !ok {
		return false
	}

	e := &s.events[i]
	if !e.CanRSVP(domain.Viewer{Email: p.Email, UserID: s.session}) {
		s.logger.Debug("rsvp refused", "event_id", e.ID)
		return false
	}

	e.UpsertRSVP(domain.GuestRSVP{
		Email:     p.Email,
		Name:      p.Name,
		Age:       p.Age,
		PartySize: p.PartySize,
		Status:    p.Status,
	}.Clone())
	s.persist(ctx)
	return true
}

// SubmitAccessRequest files a pending request for email. A second request
// from the same email, or an empty email, changes nothing.
func (s *DomainStore) SubmitAccessRequest(ctx context.Context, eventID idx.ID, email string) bool {
	if email == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex(eventID)
	if !ok {
		return false
	}

	e := &s.events[i]
	if e.RequestIndexByEmail(email) >= 0 {
		return false
	}

	e.AccessRequests = append(e.AccessRequests, domain.AccessRequest{
		ID:        idx.New(),
		Email:     email,
		CreatedAt: s.now().UTC(),
		Status:    domain.AccessPending,
	})
	s.persist(ctx)
	return true
}

// ApproveRequest moves a pending request to approved and adds its email to
// the event's approved guests.
func (s *DomainStore) ApproveRequest(ctx context.Context, eventID, requestID idx.ID) bool {
	return s.decide(ctx, eventID, requestID, domain.AccessApproved)
}

// DenyRequest moves a pending request to denied.
func (s *DomainStore) DenyRequest(ctx context.Context, eventID, requestID idx.ID) bool {
	return s.decide(ctx, eventID, requestID, domain.AccessDenied)
}

func (s *DomainStore) decide(ctx context.Context, eventID, requestID idx.ID, to domain.AccessStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex(eventID)
	if !ok {
		return false
	}
	e := &s.events[i]

	j := e.RequestIndex(requestID)
	if j < 0 {
		return false
	}
	req := &e.AccessRequests[j]

	next, err := req.Status.Transition(to)
	if err != nil {
		return false
	}
	req.Status = next
	if next == domain.AccessApproved {
		e.Approve(req.Email)
	}

	s.persist(ctx)
	s.logger.Info("access request decided", "event_id", eventID, "request_id", requestID, "status", next)
	return true
}
