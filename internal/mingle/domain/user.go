package domain

import "github.com/aussiebroadwan/mingle/pkg/idx"

// User is a registered account. Username and Email are unique across users.
type User struct {
	ID           idx.ID      `json:"id"`
	Name         string      `json:"name"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"passwordHash"`
	Age          *int        `json:"age,omitempty"`
	LastLocation *Coordinate `json:"lastLocation,omitempty"`
}

// Viewer returns the identity this user presents to the visibility rules.
func (u User) Viewer() Viewer {
	return Viewer{Email: u.Email, UserID: u.ID}
}

func (u User) Clone() User {
	out := u
	out.Age = clonePtr(u.Age)
	out.LastLocation = clonePtr(u.LastLocation)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
