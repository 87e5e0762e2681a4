package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/geocode"
	"github.com/aussiebroadwan/mingle/pkg/idx"
	"github.com/aussiebroadwan/mingle/pkg/lookup"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinate, error)
}

// Geolocator fills in event coordinates after the event has been saved.
// There is at most one lookup per event; a newer one (after an address edit)
// supersedes the old, whose result is then dropped.
type Geolocator struct {
	Store    *DomainStore
	Geocoder Geocoder
	Logger   *slog.Logger
	Timeout  time.Duration

	lookups *lookup.Tracker[idx.ID, domain.Coordinate]
}

func NewGeolocator(store *DomainStore, geocoder Geocoder, logger *slog.Logger, timeout time.Duration) *Geolocator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Geolocator{
		Store:    store,
		Geocoder: geocoder,
		Logger:   logger,
		Timeout:  timeout,
		lookups:  lookup.New[idx.ID, domain.Coordinate](),
	}
}

// Locate starts geocoding e in the background. The coordinate is written back
// only if the event still exists with the same address by then. It reports
// whether a lookup was started.
func (g *Geolocator) Locate(ctx context.Context, e domain.Event) bool {
	address := geocode.JoinAddress(e.FullAddress, e.City)
	if address == "" {
		return false
	}

	persistCtx := context.WithoutCancel(ctx)
	return g.lookups.Start(ctx, e.ID,
		func(ctx context.Context) (domain.Coordinate, error) {
			ctx, cancel := context.WithTimeout(ctx, g.Timeout)
			defer cancel()
			return g.Geocoder.Geocode(ctx, address)
		},
		func(c domain.Coordinate, err error) {
			if err != nil {
				level := slog.LevelWarn
				if errors.Is(err, geocode.ErrNotFound) {
					level = slog.LevelInfo
				}
				g.Logger.Log(persistCtx, level, "geocoding failed", "event_id", e.ID, "error", err)
				return
			}
			if !g.Store.setEventLocation(persistCtx, e.ID, address, c) {
				g.Logger.Debug("dropping stale geocode result", "event_id", e.ID)
			}
		},
	)
}

// Forget abandons any lookup for id, e.g. because the event was deleted.
func (g *Geolocator) Forget(id idx.ID) {
	g.lookups.Cancel(id)
}

func (g *Geolocator) Pending(id idx.ID) bool {
	return g.lookups.Pending(id)
}

// Wait blocks until all started lookups have finished.
func (g *Geolocator) Wait() {
	g.lookups.Wait()
}

// Close cancels outstanding lookups and waits for them to drain.
func (g *Geolocator) Close() {
	g.lookups.Close()
}

// setEventLocation stores c on event id if the event's address still joins to
// address. The check and the write happen under one lock so a concurrent edit
// is never overwritten.
func (s *DomainStore) setEventLocation(ctx context.Context, id idx.ID, address string, c domain.Coordinate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex(id)
	if !ok || geocode.JoinAddress(s.events[i].FullAddress, s.events[i].City) != address {
		return false
	}

	loc := c
	s.events[i].Location = &loc
	s.persist(ctx)
	return true
}
