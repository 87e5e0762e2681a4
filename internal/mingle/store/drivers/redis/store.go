// Package redis keeps blobs and one-time codes in Redis. Codes carry a key
// TTL matching their expiry, so Redis does the housekeeping.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

const (
	blobPrefix = "mingle:blob:"
	codePrefix = "mingle:otp:"
)

// Connect accepts either a redis:// URL or a bare host:port.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

type Store struct {
	client *redis.Client
	now    func() time.Time
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.OTPCodes = (*Store)(nil)
)

func New(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, blobPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	return value, err
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, blobPrefix+key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, blobPrefix+key).Err()
}

// codeKey never puts the raw address into the keyspace.
func codeKey(email string) string {
	return codePrefix + cryptox.FingerprintToken(email)
}

func (s *Store) PutCode(ctx context.Context, c domain.OTPCode) error {
	ttl := c.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.DeleteCode(ctx, c.Email)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, codeKey(c.Email), raw, ttl).Err()
}

func (s *Store) GetCode(ctx context.Context, email string) (domain.OTPCode, error) {
	raw, err := s.client.Get(ctx, codeKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OTPCode{}, store.ErrNotFound
	}
	if err != nil {
		return domain.OTPCode{}, err
	}

	var c domain.OTPCode
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.OTPCode{}, fmt.Errorf("redis: decode otp code: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteCode(ctx context.Context, email string) error {
	return s.client.Del(ctx, codeKey(email)).Err()
}

// DeleteExpiredCodes has nothing to do; keys expire on their own.
func (s *Store) DeleteExpiredCodes(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.client.Close() }
