package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/pkg/cryptox"
	"github.com/aussiebroadwan/mingle/pkg/idx"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoSession          = errors.New("no user is logged in")
)

type RegisterParams struct {
	Name     string
	Username string
	Email    string
	Password string
	Age      *int
}

// Register creates a user and logs them in. Duplicate usernames or emails
// leave the store untouched.
func (s *DomainStore) Register(ctx context.Context, p RegisterParams) (domain.User, error) {
	// Hash before taking the lock.
	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	usernameTaken, emailTaken := s.registered(p.Username, p.Email)
	switch {
	case usernameTaken:
		return domain.User{}, ErrUsernameTaken
	case emailTaken:
		return domain.User{}, ErrEmailTaken
	}

	u := domain.User{
		ID:           idx.New(),
		Name:         p.Name,
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: hash,
		Age:          p.Age,
	}
	s.users = append(s.users, u)
	s.session = u.ID
	s.persist(ctx)

	s.logger.Info("user registered", "user_id", u.ID)
	return u.Clone(), nil
}

// Login starts a session for the user with matching credentials. On failure
// the current session, if any, is left as it was.
func (s *DomainStore) Login(ctx context.Context, username, password string) (domain.User, error) {
	s.mu.Lock()
	i := slices.IndexFunc(s.users, func(u domain.User) bool { return u.Username == username })
	if i < 0 {
		s.mu.Unlock()
		return domain.User{}, ErrInvalidCredentials
	}
	id, hash := s.users[i].ID, s.users[i].PasswordHash
	s.mu.Unlock()

	if err := cryptox.VerifyPassword(password, hash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The account may have gone away while we were hashing.
	i, ok := s.userIndex(id)
	if !ok {
		return domain.User{}, ErrInvalidCredentials
	}
	s.session = id
	s.persist(ctx)
	return s.users[i].Clone(), nil
}

// Logout clears the session, whether or not one was active.
func (s *DomainStore) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = idx.Zero
	s.persist(ctx)
}

type ProfileParams struct {
	Name  *string
	Email *string
	Age   *int
}

// UpdateProfile changes the logged-in user's name, email or age. Nil fields
// are left alone.
func (s *DomainStore) UpdateProfile(ctx context.Context, p ProfileParams) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.userIndex(s.session)
	if !ok {
		return domain.User{}, ErrNoSession
	}

	u := s.users[i]
	if p.Email != nil && *p.Email != u.Email {
		if slices.ContainsFunc(s.users, func(o domain.User) bool { return o.Email == *p.Email }) {
			return domain.User{}, ErrEmailTaken
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Age != nil {
		age := *p.Age
		u.Age = &age
	}

	s.users[i] = u
	s.persist(ctx)
	return u.Clone(), nil
}

// CaptureUserLocation records the device's latest coordinate. It always feeds
// the live cache used by FilteredEvents; with a session it also becomes the
// user's last known location.
func (s *DomainStore) CaptureUserLocation(ctx context.Context, c domain.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.live = &c
	if i, ok := s.userIndex(s.session); ok {
		loc := c
		s.users[i].LastLocation = &loc
	}
	s.persist(ctx)
}

// DeleteCurrentUser removes the logged-in user together with every event they
// host, and ends the session. It reports false when nobody is logged in.
func (s *DomainStore) DeleteCurrentUser(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.session
	if _, ok := s.userIndex(id); !ok {
		return false
	}

	s.users = slices.DeleteFunc(s.users, func(u domain.User) bool { return u.ID == id })
	s.events = slices.DeleteFunc(s.events, func(e domain.Event) bool { return e.HostID == id })
	s.session = idx.Zero
	s.persist(ctx)

	s.logger.Info("user deleted", "user_id", id)
	return true
}
