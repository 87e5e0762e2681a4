// Package memory is an in-process driver for tests and single-shot runs.
// Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	codes map[string]domain.OTPCode
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.OTPCodes = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		blobs: make(map[string][]byte),
		codes: make(map[string]domain.OTPCode),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.blobs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

func (s *Store) PutCode(_ context.Context, c domain.OTPCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[c.Email] = c
	return nil
}

func (s *Store) GetCode(_ context.Context, email string) (domain.OTPCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codes[email]
	if !ok {
		return domain.OTPCode{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) DeleteCode(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, email)
	return nil
}

func (s *Store) DeleteExpiredCodes(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for email, c := range s.codes {
		if c.Expired(now) {
			delete(s.codes, email)
			n++
		}
	}
	return n, nil
}

func (s *Store) ApplyMigrations() error     { return nil }
func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }
