package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the persistence port behind the domain store. It is a plain
// key/value blob store: the caller owns the encoding of whatever it puts.
// Concrete drivers (memory, sqlite, postgres, redis) implement this.
type Store interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value under key, replacing anything already there.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}

// OTPCodes holds at most one outstanding one-time code per email.
type OTPCodes interface {
	// PutCode stores c, replacing any code already issued for c.Email.
	PutCode(ctx context.Context, c domain.OTPCode) error

	// GetCode returns the outstanding code for email, or ErrNotFound.
	GetCode(ctx context.Context, email string) (domain.OTPCode, error)

	// DeleteCode removes the code for email. Missing codes are not an error.
	DeleteCode(ctx context.Context, email string) error

	// DeleteExpiredCodes is housekeeping; it returns how many were removed.
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int, error)
}
