package gate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
)

func TestCachedResolver_CachesProfile(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile("cashier", 2))

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)

	p1, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Name() != "cashier" {
		t.Errorf("expected 'cashier', got '%s'", p1.Name())
	}

	inner.Set(1, gate.NewStaticProfile("manager", 3))

	p2, _ := cached.Resolve(context.Background(), 1)
	if p2.Name() != "cashier" {
		t.Errorf("expected cached 'cashier', got '%s'", p2.Name())
	}

	cached.Invalidate(1)
	p3, _ := cached.Resolve(context.Background(), 1)
	if p3.Name() != "manager" {
		t.Errorf("expected 'manager' after invalidation, got '%s'", p3.Name())
	}
}

func TestCachedResolver_InvalidateOnlyDropsOneUser(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile("cashier", 2))
	inner.Set(2, gate.NewStaticProfile("viewer", 1))

	cached := gate.NewCachedResolver[uint](inner, time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)
	_, _ = cached.Resolve(context.Background(), 2)

	inner.Set(1, gate.NewStaticProfile("manager", 3))
	inner.Set(2, gate.NewStaticProfile("manager", 3))
	cached.Invalidate(1)

	p1, _ := cached.Resolve(context.Background(), 1)
	p2, _ := cached.Resolve(context.Background(), 2)
	if p1.Name() != "manager" {
		t.Errorf("expected 'manager' for invalidated user, got '%s'", p1.Name())
	}
	if p2.Name() != "viewer" {
		t.Errorf("expected cached 'viewer', got '%s'", p2.Name())
	}
}

func TestCachedResolver_DoesNotCacheMisses(t *testing.T) {
	calls := 0
	inner := gate.ResolverFunc[uint](func(_ context.Context, _ uint) (gate.Profile, error) {
		calls++
		return nil, nil
	})
	cached := gate.NewCachedResolver[uint](inner, time.Minute)
	_, _ = cached.Resolve(context.Background(), 7)
	_, _ = cached.Resolve(context.Background(), 7)
	if calls != 2 {
		t.Errorf("expected 2 inner calls, got %d", calls)
	}
}

func TestCachedResolver_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	inner := gate.ResolverFunc[uint](func(_ context.Context, _ uint) (gate.Profile, error) {
		return nil, boom
	})
	cached := gate.NewCachedResolver[uint](inner, time.Minute)
	if _, err := cached.Resolve(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("expected inner error, got %v", err)
	}
}
