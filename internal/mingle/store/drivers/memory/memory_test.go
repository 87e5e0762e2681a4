package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/internal/mingle/store/drivers/memory"
	"github.com/aussiebroadwan/mingle/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestBlobs(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	_, err := s.Get(ctx, "k")
	require.True(t, errors.Is(err, store.ErrNotFound))

	value := []byte(`{"a":1}`)
	require.NoError(t, s.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(got), "stored value must not alias the caller's slice")

	require.NoError(t, s.Put(ctx, "k", []byte("2")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "2", string(got))

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestCodes(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	now := time.Now()

	live := domain.OTPCode{Handle: idx.New(), Email: "a@x.com", ExpiresAt: now.Add(time.Minute)}
	stale := domain.OTPCode{Handle: idx.New(), Email: "b@x.com", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, s.PutCode(ctx, live))
	require.NoError(t, s.PutCode(ctx, stale))

	n, err := s.DeleteExpiredCodes(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.GetCode(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, live.Handle, got.Handle)

	_, err = s.GetCode(ctx, "b@x.com")
	require.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, s.DeleteCode(ctx, "a@x.com"))
	_, err = s.GetCode(ctx, "a@x.com")
	require.True(t, errors.Is(err, store.ErrNotFound))
}
