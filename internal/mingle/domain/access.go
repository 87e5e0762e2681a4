package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/mingle/pkg/idx"
)

var ErrInvalidTransition = errors.New("domain: invalid access request transition")

type AccessStatus string

const (
	AccessPending  AccessStatus = "pending"
	AccessApproved AccessStatus = "approved"
	AccessDenied   AccessStatus = "denied"
)

// Transition is the only way an access request changes state. A pending
// request may become approved or denied; approved and denied are terminal.
func (s AccessStatus) Transition(to AccessStatus) (AccessStatus, error) {
	if s != AccessPending || (to != AccessApproved && to != AccessDenied) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return to, nil
}

// AccessRequest is a guest asking to be approved for a private event. At most
// one exists per (event, email).
type AccessRequest struct {
	ID        idx.ID       `json:"id"`
	Email     string       `json:"email"`
	CreatedAt time.Time    `json:"createdAt"`
	Status    AccessStatus `json:"status"`
}
