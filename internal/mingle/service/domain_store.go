package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/pkg/idx"
)

// DefaultSnapshotKey is the blob key the whole application state lives under.
const DefaultSnapshotKey = "MingleAppStoreV2"

// snapshot is the persisted form of the store. The session pointer travels
// with the data so a restart resumes the same login.
type snapshot struct {
	Users         []domain.User  `json:"users"`
	Events        []domain.Event `json:"events"`
	CurrentUserID idx.ID         `json:"currentUserID,omitempty"`
}

// DomainStore owns users, events and the current session. Every operation is
// serialized by one mutex, and every mutation writes a full snapshot to the
// blob store before returning. Write failures are logged and otherwise
// ignored: in-memory state stays authoritative.
type DomainStore struct {
	mu     sync.Mutex
	blobs  store.Store
	logger *slog.Logger
	key    string
	now    func() time.Time

	users   []domain.User
	events  []domain.Event
	session idx.ID
	live    *domain.Coordinate
}

// NewDomainStore loads whatever snapshot is stored under key. A missing or
// unreadable snapshot yields an empty store.
func NewDomainStore(ctx context.Context, blobs store.Store, logger *slog.Logger, key string) *DomainStore {
	if key == "" {
		key = DefaultSnapshotKey
	}

	s := &DomainStore{
		blobs:  blobs,
		logger: logger,
		key:    key,
		now:    time.Now,
	}
	s.load(ctx)
	return s
}

func (s *DomainStore) load(ctx context.Context) {
	raw, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("failed to load snapshot, starting empty", "key", s.key, "error", err)
		return
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.logger.Warn("discarding malformed snapshot", "key", s.key, "error", err)
		return
	}

	s.users = snap.Users
	s.events = snap.Events
	s.session = snap.CurrentUserID
	if _, ok := s.userIndex(s.session); !ok {
		s.session = idx.Zero
	}

	s.logger.Info("snapshot loaded", "users", len(s.users), "events", len(s.events))
}

// persist writes the current state. Callers hold s.mu. The write outlives
// ctx's cancellation so a dropped request cannot leave a mutation unsaved.
func (s *DomainStore) persist(ctx context.Context) {
	raw, err := json.Marshal(snapshot{
		Users:         nonNil(s.users),
		Events:        nonNil(s.events),
		CurrentUserID: s.session,
	})
	if err != nil {
		s.logger.Warn("failed to encode snapshot", "error", err)
		return
	}

	if err := s.blobs.Put(context.WithoutCancel(ctx), s.key, raw); err != nil {
		s.logger.Warn("failed to persist snapshot", "key", s.key, "error", err)
	}
}

// Reset drops all users, events and the session, and removes the stored
// snapshot.
func (s *DomainStore) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = nil
	s.events = nil
	s.session = idx.Zero
	s.live = nil

	if err := s.blobs.Delete(context.WithoutCancel(ctx), s.key); err != nil {
		s.logger.Warn("failed to delete snapshot", "key", s.key, "error", err)
	}
}

// CurrentUser returns the logged-in user, if any.
func (s *DomainStore) CurrentUser() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.currentUser()
	if !ok {
		return domain.User{}, false
	}
	return u.Clone(), true
}

func (s *DomainStore) User(id idx.ID) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.userIndex(id)
	if !ok {
		return domain.User{}, false
	}
	return s.users[i].Clone(), true
}

func (s *DomainStore) UserByEmail(email string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.users, func(u domain.User) bool { return u.Email == email })
	if i < 0 {
		return domain.User{}, false
	}
	return s.users[i].Clone(), true
}

// IsRegistered reports which of username and email already belong to a user.
func (s *DomainStore) IsRegistered(username, email string) (usernameTaken, emailTaken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registered(username, email)
}

func (s *DomainStore) Event(id idx.ID) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex(id)
	if !ok {
		return domain.Event{}, false
	}
	return s.events[i].Clone(), true
}

// Events returns every event in storage order.
func (s *DomainStore) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneEvents(s.events)
}

func (s *DomainStore) currentUser() (domain.User, bool) {
	i, ok := s.userIndex(s.session)
	if !ok {
		return domain.User{}, false
	}
	return s.users[i], true
}

func (s *DomainStore) userIndex(id idx.ID) (int, bool) {
	if id.IsZero() {
		return -1, false
	}
	i := slices.IndexFunc(s.users, func(u domain.User) bool { return u.ID == id })
	return i, i >= 0
}

func (s *DomainStore) eventIndex(id idx.ID) (int, bool) {
	i := slices.IndexFunc(s.events, func(e domain.Event) bool { return e.ID == id })
	return i, i >= 0
}

func (s *DomainStore) registered(username, email string) (usernameTaken, emailTaken bool) {
	for _, u := range s.users {
		if u.Username == username {
			usernameTaken = true
		}
		if u.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken
}

func cloneEvents(events []domain.Event) []domain.Event {
	out := make([]domain.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
