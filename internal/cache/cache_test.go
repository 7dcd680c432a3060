package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCart(user uuid.UUID, heldAt time.Time) *HeldCart {
	return &HeldCart{
		ID:        uuid.New(),
		UserID:    user,
		Items:     []HeldItem{{ProductID: uuid.New(), Quantity: 2}},
		HeldAt:    heldAt,
		ExpiresAt: heldAt.Add(24 * time.Hour),
	}
}

func TestMemoryHoldStore_SaveListPop(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryHoldStore()
	alice, bob := uuid.New(), uuid.New()
	now := time.Now()

	first := newCart(alice, now.Add(-time.Minute))
	second := newCart(alice, now)
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))
	require.NoError(t, s.Save(ctx, newCart(bob, now)))

	list, err := s.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	_, err = s.Pop(ctx, bob, first.ID)
	assert.True(t, errors.Is(err, ErrHoldNotFound), "other users cannot resume")

	got, err := s.Pop(ctx, alice, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Items, got.Items)

	_, err = s.Pop(ctx, alice, first.ID)
	assert.ErrorIs(t, err, ErrHoldNotFound)

	require.NoError(t, s.Delete(ctx, alice, second.ID))
	assert.ErrorIs(t, s.Delete(ctx, alice, second.ID), ErrHoldNotFound)
}

func TestMemoryHoldStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryHoldStore()
	user := uuid.New()
	cart := newCart(user, time.Now())
	require.NoError(t, s.Save(ctx, cart))

	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	list, err := s.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = s.Pop(ctx, user, cart.ID)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDenylist()
	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, d.Revoke(ctx, "jti-old", time.Now().Add(-time.Hour)))

	revoked, _ := d.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)
	revoked, _ = d.IsRevoked(ctx, "jti-old")
	assert.False(t, revoked, "already expired tokens are not stored")
	revoked, _ = d.IsRevoked(ctx, "unknown")
	assert.False(t, revoked)

	d.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}

func TestKeys(t *testing.T) {
	u, h := uuid.MustParse("11111111-1111-1111-1111-111111111111"), uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "pos:hold:11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222", holdKey(u, h))
	assert.Equal(t, "pos:holds:11111111-1111-1111-1111-111111111111", holdIndexKey(u))
	assert.Equal(t, "pos:revoked:abc", revokedKey("abc"))
}

func TestRedisHoldStore_ReportsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisHoldStore(client)
	ctx := context.Background()
	user, hold := uuid.New(), uuid.New()

	_, err := s.Pop(ctx, user, hold)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrHoldNotFound))
	assert.Contains(t, err.Error(), "pop hold")

	err = s.Delete(ctx, user, hold)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrHoldNotFound))
	assert.Contains(t, err.Error(), "delete hold")

	_, err = s.List(ctx, user)
	require.Error(t, err)
}
