package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/pkg/idx"
	"github.com/stretchr/testify/require"
)

// latitude offset, in degrees, of a point n miles north of the equator
func milesNorth(n float64) float64 {
	return n / (domain.EarthRadiusMiles * math.Pi / 180)
}

func TestCreateEventRequiresSession(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.CreateEvent(context.Background(), NewEventParams{Title: "Nope", City: "Irvine"})
	require.False(t, ok)
	require.Empty(t, s.Events())
}

func TestCreateEventSeedsHostApproval(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	host := register(t, s, "alice", "a@x.com")

	e, ok := s.CreateEvent(ctx, NewEventParams{
		Title:       "Dinner",
		Date:        time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC),
		City:        "Irvine",
		FullAddress: strPtr("123 Oak St"),
	})
	require.True(t, ok)
	require.Equal(t, host.ID, e.HostID)
	require.Equal(t, []string{"a@x.com"}, e.ApprovedGuests)
	require.Empty(t, e.RSVPs)
	require.Empty(t, e.AccessRequests)
	require.Equal(t, "123 Oak St, Irvine", e.DisplayAddress(host.Viewer()))
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	register(t, s, "alice", "a@x.com")

	e, ok := s.CreateEvent(ctx, NewEventParams{Title: "Dinner", City: "Irvine"})
	require.True(t, ok)

	e.Title = "Supper"
	e.IsPublic = true
	require.True(t, s.UpdateEvent(ctx, e))

	got, ok := s.Event(e.ID)
	require.True(t, ok)
	require.Equal(t, "Supper", got.Title)
	require.True(t, got.IsPublic)

	require.False(t, s.UpdateEvent(ctx, domain.Event{ID: idx.New(), Title: "ghost"}))
	require.Len(t, s.Events(), 1)

	require.False(t, s.DeleteEvent(ctx, idx.New()))
	require.True(t, s.DeleteEvent(ctx, e.ID))
	require.Empty(t, s.Events())
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	register(t, s, "alice", "a@x.com")
	e, _ := s.CreateEvent(ctx, NewEventParams{Title: "Dinner", City: "Irvine"})

	got, _ := s.Event(e.ID)
	got.ApprovedGuests[0] = "mallory@x.com"
	got.Title = "Hijacked"

	again, _ := s.Event(e.ID)
	require.Equal(t, "Dinner", again.Title)
	require.Equal(t, []string{"a@x.com"}, again.ApprovedGuests)
}

func TestEventsForCurrentUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.Empty(t, s.EventsForCurrentUser())

	register(t, s, "bob", "b@x.com")
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "bob-1", City: "Tustin"})

	register(t, s, "alice", "a@x.com")
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "alice-1", City: "Irvine"})
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "alice-2", City: "Irvine"})

	mine := s.EventsForCurrentUser()
	require.Len(t, mine, 2)
	require.Equal(t, "alice-1", mine[0].Title)
	require.Equal(t, "alice-2", mine[1].Title)
}

func TestFilteredEventsText(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	register(t, s, "alice", "a@x.com")
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "Dinner", City: "Irvine", IsPublic: true})
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "Brunch", City: "Tustin", IsPublic: true})

	got := s.FilteredEvents("irvine", 0, nil)
	require.Len(t, got, 1)
	require.Equal(t, "Dinner", got[0].Title)

	require.Empty(t, s.FilteredEvents("zzz", 0, nil))

	// host display name is searchable
	require.Len(t, s.FilteredEvents("ALICE name", 0, nil), 2)
}

func TestFilteredEventsDistance(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	register(t, s, "alice", "a@x.com")

	thirty := &domain.Coordinate{Latitude: milesNorth(30)}
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "Far", City: "Somewhere", Location: thirty})
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "Unplaced", City: "Nowhere"})

	origin := &domain.Coordinate{}
	require.Empty(t, s.FilteredEvents("", 20, origin))

	got := s.FilteredEvents("", 40, origin)
	require.Len(t, got, 1)
	require.Equal(t, "Far", got[0].Title)
}

func TestFilteredEventsCoordinatePriority(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	register(t, s, "alice", "a@x.com")

	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "Equator", City: "A", Location: &domain.Coordinate{}})
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "North", City: "B", Location: &domain.Coordinate{Latitude: milesNorth(100)}})

	titles := func(events []domain.Event) []string {
		out := []string{}
		for _, e := range events {
			out = append(out, e.Title)
		}
		return out
	}

	// no location known at all: every event passes
	require.Equal(t, []string{"Equator", "North"}, titles(s.FilteredEvents("", 10, nil)))

	// live location
	s.CaptureUserLocation(ctx, domain.Coordinate{Latitude: milesNorth(100)})
	require.Equal(t, []string{"North"}, titles(s.FilteredEvents("", 10, nil)))

	// explicit coordinate wins over the live one
	require.Equal(t, []string{"Equator"}, titles(s.FilteredEvents("", 10, &domain.Coordinate{})))

	// after a restart only the user's last known location remains
	reloaded := NewDomainStore(ctx, s.blobs, s.logger, "")
	require.Equal(t, []string{"North"}, titles(reloaded.FilteredEvents("", 10, nil)))
}

func TestFilteredEventsSortedByDate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	register(t, s, "alice", "a@x.com")

	day := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "late", City: "X", Date: day.AddDate(0, 0, 2)})
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "early-1", City: "X", Date: day})
	_, _ = s.CreateEvent(ctx, NewEventParams{Title: "early-2", City: "X", Date: day})

	got := s.FilteredEvents("", 0, nil)
	require.Equal(t, "early-1", got[0].Title)
	require.Equal(t, "early-2", got[1].Title)
	require.Equal(t, "late", got[2].Title)
}

func TestEffectiveCoordinate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.Nil(t, s.EffectiveCoordinate(nil))

	register(t, s, "alice", "a@x.com")
	s.CaptureUserLocation(ctx, domain.Coordinate{Latitude: 1, Longitude: 2})

	explicit := &domain.Coordinate{Latitude: 3, Longitude: 4}
	require.Equal(t, explicit, s.EffectiveCoordinate(explicit))

	got := s.EffectiveCoordinate(nil)
	require.Equal(t, &domain.Coordinate{Latitude: 1, Longitude: 2}, got)

	// The result is a copy.
	got.Latitude = 99
	require.Equal(t, 1.0, s.EffectiveCoordinate(nil).Latitude)
}
