package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHoldNotFound is returned when a held cart does not exist or expired.
var ErrHoldNotFound = errors.New("held cart not found")

// HeldItem is one line of a held cart.
type HeldItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// HeldCart is a cart parked by a cashier to be resumed later.
type HeldCart struct {
	ID           uuid.UUID  `json:"hold_id"`
	UserID       uuid.UUID  `json:"user_id"`
	Items        []HeldItem `json:"items"`
	CustomerName string     `json:"customer_name,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	HeldAt       time.Time  `json:"held_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// HoldStore persists held carts per user.
type HoldStore interface {
	Save(ctx context.Context, cart *HeldCart) error
	List(ctx context.Context, userID uuid.UUID) ([]HeldCart, error)
	// Pop returns the cart and removes it.
	Pop(ctx context.Context, userID, holdID uuid.UUID) (*HeldCart, error)
	Delete(ctx context.Context, userID, holdID uuid.UUID) error
}

func holdKey(userID, holdID uuid.UUID) string {
	return fmt.Sprintf("%shold:%s:%s", keyPrefix, userID, holdID)
}

func holdIndexKey(userID uuid.UUID) string {
	return fmt.Sprintf("%sholds:%s", keyPrefix, userID)
}

func sortHolds(carts []HeldCart) {
	sort.Slice(carts, func(i, j int) bool { return carts[i].HeldAt.After(carts[j].HeldAt) })
}

// RedisHoldStore keeps each cart under its own key with a TTL and a per-user
// set indexing the cart ids.
type RedisHoldStore struct {
	client *redis.Client
}

func NewRedisHoldStore(client *redis.Client) *RedisHoldStore {
	return &RedisHoldStore{client: client}
}

func (s *RedisHoldStore) Save(ctx context.Context, cart *HeldCart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal hold: %w", err)
	}
	ttl := time.Until(cart.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("hold %s already expired", cart.ID)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, holdKey(cart.UserID, cart.ID), data, ttl)
	pipe.SAdd(ctx, holdIndexKey(cart.UserID), cart.ID.String())
	pipe.Expire(ctx, holdIndexKey(cart.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save hold: %w", err)
	}
	return nil
}

func (s *RedisHoldStore) List(ctx context.Context, userID uuid.UUID) ([]HeldCart, error) {
	ids, err := s.client.SMembers(ctx, holdIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	out := make([]HeldCart, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		val, err := s.client.Get(ctx, holdKey(userID, id)).Bytes()
		if errors.Is(err, redis.Nil) {
			// expired, drop it from the index
			if err := s.client.SRem(ctx, holdIndexKey(userID), raw).Err(); err != nil {
				return nil, fmt.Errorf("untrack hold %s: %w", raw, err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get hold %s: %w", raw, err)
		}
		var cart HeldCart
		if err := json.Unmarshal(val, &cart); err != nil {
			return nil, fmt.Errorf("decode hold %s: %w", raw, err)
		}
		out = append(out, cart)
	}
	sortHolds(out)
	return out, nil
}

// Pop reads and removes the cart and its index entry in one transaction.
func (s *RedisHoldStore) Pop(ctx context.Context, userID, holdID uuid.UUID) (*HeldCart, error) {
	pipe := s.client.TxPipeline()
	get := pipe.GetDel(ctx, holdKey(userID, holdID))
	pipe.SRem(ctx, holdIndexKey(userID), holdID.String())
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pop hold: %w", err)
	}
	val, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pop hold: %w", err)
	}
	var cart HeldCart
	if err := json.Unmarshal(val, &cart); err != nil {
		return nil, fmt.Errorf("decode hold: %w", err)
	}
	return &cart, nil
}

func (s *RedisHoldStore) Delete(ctx context.Context, userID, holdID uuid.UUID) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, holdKey(userID, holdID))
	pipe.SRem(ctx, holdIndexKey(userID), holdID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete hold: %w", err)
	}
	if del.Val() == 0 {
		return ErrHoldNotFound
	}
	return nil
}

// MemoryHoldStore is the in-process HoldStore.
type MemoryHoldStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]HeldCart
	now   func() time.Time
}

func NewMemoryHoldStore() *MemoryHoldStore {
	return &MemoryHoldStore{carts: make(map[uuid.UUID]HeldCart), now: time.Now}
}

func (s *MemoryHoldStore) Save(_ context.Context, cart *HeldCart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.ID] = *cart
	return nil
}

func (s *MemoryHoldStore) List(_ context.Context, userID uuid.UUID) ([]HeldCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := []HeldCart{}
	for id, c := range s.carts {
		if !now.Before(c.ExpiresAt) {
			delete(s.carts, id)
			continue
		}
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sortHolds(out)
	return out, nil
}

func (s *MemoryHoldStore) take(userID, holdID uuid.UUID) (HeldCart, bool) {
	c, ok := s.carts[holdID]
	if !ok || c.UserID != userID {
		return HeldCart{}, false
	}
	delete(s.carts, holdID)
	if !s.now().Before(c.ExpiresAt) {
		return HeldCart{}, false
	}
	return c, true
}

func (s *MemoryHoldStore) Pop(_ context.Context, userID, holdID uuid.UUID) (*HeldCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.take(userID, holdID)
	if !ok {
		return nil, ErrHoldNotFound
	}
	return &c, nil
}

func (s *MemoryHoldStore) Delete(_ context.Context, userID, holdID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.take(userID, holdID); !ok {
		return ErrHoldNotFound
	}
	return nil
}
