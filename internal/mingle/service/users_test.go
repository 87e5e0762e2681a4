package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/internal/mingle/store/drivers/memory"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{"same username", "alice", "other@x.com", ErrUsernameTaken},
		{"same email", "bob", "a@x.com", ErrEmailTaken},
		{"both", "alice", "a@x.com", ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, blobs := newTestStore(t)
			first := register(t, s, "alice", "a@x.com")
			before, err := blobs.Get(ctx, DefaultSnapshotKey)
			require.NoError(t, err)

			_, err = s.Register(ctx, RegisterParams{Username: tt.username, Email: tt.email, Password: "pw"})
			require.ErrorIs(t, err, tt.wantErr)

			after, err := blobs.Get(ctx, DefaultSnapshotKey)
			require.NoError(t, err)
			require.Equal(t, before, after)

			cur, ok := s.CurrentUser()
			require.True(t, ok)
			require.Equal(t, first.ID, cur.ID)
		})
	}
}

func TestRegisterStartsSessionAndHashesPassword(t *testing.T) {
	s, _ := newTestStore(t)
	u := register(t, s, "alice", "a@x.com")

	require.NotEqual(t, "hunter2", u.PasswordHash)
	require.Contains(t, u.PasswordHash, "$argon2id$")

	cur, ok := s.CurrentUser()
	require.True(t, ok)
	require.Equal(t, u.ID, cur.ID)

	usernameTaken, emailTaken := s.IsRegistered("alice", "nobody@x.com")
	require.True(t, usernameTaken)
	require.False(t, emailTaken)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	alice := register(t, s, "alice", "a@x.com")
	bob := register(t, s, "bob", "b@x.com")

	_, err := s.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	cur, _ := s.CurrentUser()
	require.Equal(t, bob.ID, cur.ID, "failed login keeps the session")

	_, err = s.Login(ctx, "nobody", "hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := s.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	s.Logout(ctx)
	_, ok := s.CurrentUser()
	require.False(t, ok)

	s.Logout(ctx)
	_, ok = s.CurrentUser()
	require.False(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.UpdateProfile(ctx, ProfileParams{Name: strPtr("x")})
	require.ErrorIs(t, err, ErrNoSession)

	register(t, s, "bob", "b@x.com")
	register(t, s, "alice", "a@x.com")

	_, err = s.UpdateProfile(ctx, ProfileParams{Email: strPtr("b@x.com")})
	require.ErrorIs(t, err, ErrEmailTaken)

	age := 31
	u, err := s.UpdateProfile(ctx, ProfileParams{Name: strPtr("Alice A"), Email: strPtr("alice@x.com"), Age: &age})
	require.NoError(t, err)
	require.Equal(t, "Alice A", u.Name)
	require.Equal(t, "alice@x.com", u.Email)
	require.Equal(t, 31, *u.Age)

	_, ok := s.UserByEmail("alice@x.com")
	require.True(t, ok)
}

func TestCaptureUserLocation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.CaptureUserLocation(ctx, domain.Coordinate{Latitude: 1, Longitude: 2})

	u := register(t, s, "alice", "a@x.com")
	require.Nil(t, u.LastLocation)

	s.CaptureUserLocation(ctx, domain.Coordinate{Latitude: 3, Longitude: 4})
	got, ok := s.User(u.ID)
	require.True(t, ok)
	require.Equal(t, &domain.Coordinate{Latitude: 3, Longitude: 4}, got.LastLocation)
}

func TestDeleteCurrentUserCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.False(t, s.DeleteCurrentUser(ctx))

	bob := register(t, s, "bob", "b@x.com")
	bobEvent, ok := s.CreateEvent(ctx, NewEventParams{Title: "Bob's", City: "Tustin", IsPublic: true})
	require.True(t, ok)

	alice := register(t, s, "alice", "a@x.com")
	for _, title := range []string{"one", "two"} {
		_, ok := s.CreateEvent(ctx, NewEventParams{Title: title, City: "Irvine"})
		require.True(t, ok)
	}

	require.True(t, s.DeleteCurrentUser(ctx))

	_, ok = s.User(alice.ID)
	require.False(t, ok)
	_, ok = s.CurrentUser()
	require.False(t, ok)

	events := s.Events()
	require.Len(t, events, 1)
	require.Equal(t, bobEvent.ID, events[0].ID)
	require.Equal(t, bob.ID, events[0].HostID)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, blobs := newTestStore(t)

	u := register(t, s, "alice", "a@x.com")
	e, ok := s.CreateEvent(ctx, NewEventParams{Title: "Dinner", City: "Irvine", FullAddress: strPtr("123 Oak St")})
	require.True(t, ok)
	require.True(t, s.SubmitAccessRequest(ctx, e.ID, "b@x.com"))

	raw, err := blobs.Get(ctx, DefaultSnapshotKey)
	require.NoError(t, err)

	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &shape))
	require.Contains(t, shape, "users")
	require.Contains(t, shape, "events")
	require.Contains(t, shape, "currentUserID")

	reloaded := NewDomainStore(ctx, blobs, slogx.Discard(), "")
	cur, ok := reloaded.CurrentUser()
	require.True(t, ok)
	require.Equal(t, u.ID, cur.ID)

	got, ok := reloaded.Event(e.ID)
	require.True(t, ok)
	require.Equal(t, "123 Oak St", *got.FullAddress)
	require.Len(t, got.AccessRequests, 1)
	require.Equal(t, []string{"a@x.com"}, got.ApprovedGuests)
}

func TestMalformedSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	require.NoError(t, blobs.Put(ctx, DefaultSnapshotKey, []byte("{not json")))

	s := NewDomainStore(ctx, blobs, slogx.Discard(), "")
	require.Empty(t, s.Events())
	_, ok := s.CurrentUser()
	require.False(t, ok)
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	s := NewDomainStore(ctx, failingBlobs{memory.NewStore()}, slogx.Discard(), "")

	u := register(t, s, "alice", "a@x.com")
	e, ok := s.CreateEvent(ctx, NewEventParams{Title: "Dinner", City: "Irvine"})
	require.True(t, ok)

	got, ok := s.Event(e.ID)
	require.True(t, ok)
	require.Equal(t, u.ID, got.HostID)

	s.Reset(ctx)
	require.Empty(t, s.Events())
}

func TestPersistSurvivesCancelledRequest(t *testing.T) {
	blobs := ctxBlobs{memory.NewStore()}
	s := NewDomainStore(context.Background(), blobs, slogx.Discard(), "")
	register(t, s, "alice", "a@x.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, ok := s.CreateEvent(ctx, NewEventParams{Title: "Dinner", City: "Irvine"})
	require.True(t, ok)

	raw, err := blobs.Get(context.Background(), DefaultSnapshotKey)
	require.NoError(t, err)
	var snap snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	require.Len(t, snap.Events, 1)
	require.Equal(t, e.ID, snap.Events[0].ID)

	s.Reset(ctx)
	_, err = blobs.Get(context.Background(), DefaultSnapshotKey)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s, blobs := newTestStore(t)
	register(t, s, "alice", "a@x.com")
	_, ok := s.CreateEvent(ctx, NewEventParams{Title: "Dinner", City: "Irvine"})
	require.True(t, ok)

	s.Reset(ctx)

	require.Empty(t, s.Events())
	_, ok = s.CurrentUser()
	require.False(t, ok)
	_, err := blobs.Get(ctx, DefaultSnapshotKey)
	require.Error(t, err)

	usernameTaken, emailTaken := s.IsRegistered("alice", "a@x.com")
	require.False(t, usernameTaken)
	require.False(t, emailTaken)
}
