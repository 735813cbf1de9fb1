package verification_test

import (
	"context"
	"testing"
	"time"

	"github.com/barida/identity-server/verification"
	"github.com/stretchr/testify/require"
)

func newToken(value, userID string, now time.Time, ttl time.Duration) verification.Token {
	return verification.Token{
		Value:     value,
		UserID:    userID,
		Username:  "jane",
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestInMemoryPutGetConsume(t *testing.T) {
	store := verification.NewInMemoryTokenStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, newToken("tok-1", "user-1", now, time.Minute)))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.UserID)

	consumed, err := store.Consume(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, "tok-1", consumed.Value)

	// Replays are reported as already used, not unknown.
	_, err = store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenAlreadyUsed)
	_, err = store.Consume(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenAlreadyUsed)
}

func TestInMemoryPutSupersedes(t *testing.T) {
	store := verification.NewInMemoryTokenStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, newToken("tok-1", "user-1", now, time.Minute)))
	require.NoError(t, store.Put(ctx, newToken("tok-2", "user-1", now, time.Minute)))

	_, err := store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenNotFound)
	_, err = store.Get(ctx, "tok-2")
	require.NoError(t, err)
}

func TestInMemoryLazyExpiry(t *testing.T) {
	clock := time.Now()
	store := verification.NewInMemoryTokenStore(
		verification.WithInMemoryNowFunc(func() time.Time { return clock }))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newToken("tok-1", "user-1", clock, time.Minute)))

	clock = clock.Add(2 * time.Minute)
	_, err := store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenExpired)

	// Once dropped, the value is unknown.
	_, err = store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenNotFound)
}

func TestInMemoryConsumedMarkerExpires(t *testing.T) {
	clock := time.Now()
	store := verification.NewInMemoryTokenStore(
		verification.WithInMemoryNowFunc(func() time.Time { return clock }))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newToken("tok-1", "user-1", clock, time.Minute)))
	_, err := store.Consume(ctx, "tok-1")
	require.NoError(t, err)

	// The already-used answer holds until the token would have expired anyway.
	_, err = store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenAlreadyUsed)

	clock = clock.Add(2 * time.Minute)
	_, err = store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenNotFound)
}

func TestInMemoryDeleteForUser(t *testing.T) {
	store := verification.NewInMemoryTokenStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, newToken("tok-1", "user-1", now, time.Minute)))
	require.NoError(t, store.DeleteForUser(ctx, "user-1"))

	_, err := store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, verification.ErrTokenNotFound)

	// Deleting with nothing outstanding is a no-op.
	require.NoError(t, store.DeleteForUser(ctx, "user-1"))
}
