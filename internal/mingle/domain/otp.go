package domain

import (
	"time"

	"github.com/aussiebroadwan/mingle/pkg/idx"
)

// OTPCode is an outstanding one-time code for an email address. The code
// itself is never stored, only the secret it was derived from.
type OTPCode struct {
	Handle    idx.ID    `json:"handle"`
	Email     string    `json:"email"`
	Secret    string    `json:"secret"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Attempts  int       `json:"attempts"`
}

// Expired reports whether the code can no longer be redeemed at now.
func (c OTPCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
