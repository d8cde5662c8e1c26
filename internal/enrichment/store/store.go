// Package store keeps enrichment payloads in Redis behind opaque,
// tenant-bound tokens until the caller saves or abandons them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"outreach_backend/internal/enrichment/payload"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "enrichment:payload:"

// DefaultTTL applies when the store is created with a non-positive TTL.
const DefaultTTL = time.Hour

// Token is the handle returned to the caller.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type entry struct {
	TenantID uuid.UUID       `json:"tenant_id"`
	Payload  payload.Payload `json:"payload"`
}

// Store is a Redis backed payload cache.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

// New creates a store.
func New(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

func key(token string) string {
	return keyPrefix + token
}

// Put stores p for tenantID under a fresh token.
func (s *Store) Put(ctx context.Context, tenantID uuid.UUID, p payload.Payload) (Token, error) {
	data, err := json.Marshal(entry{TenantID: tenantID, Payload: p})
	if err != nil {
		return Token{}, fmt.Errorf("encode payload: %w", err)
	}
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, key(token), data, s.ttl).Err(); err != nil {
		return Token{}, fmt.Errorf("store payload: %w", err)
	}
	return Token{Value: token, ExpiresAt: s.now().Add(s.ttl).UTC()}, nil
}

// Get returns the payload without consuming it.
func (s *Store) Get(ctx context.Context, tenantID uuid.UUID, token string) (*payload.Payload, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, errTokenNotFound()
	}
	raw, err := s.rdb.Get(ctx, key(token)).Bytes()
	return decode(raw, err, tenantID)
}

// Consume returns the payload and deletes it. A token owned by another
// tenant is reported as missing and left untouched.
func (s *Store) Consume(ctx context.Context, tenantID uuid.UUID, token string) (*payload.Payload, error) {
	if _, err := s.Get(ctx, tenantID, token); err != nil {
		return nil, err
	}
	raw, err := s.rdb.GetDel(ctx, key(token)).Bytes()
	return decode(raw, err, tenantID)
}

// Restore puts a consumed payload back under the same token, used when a
// save fails after the token was consumed.
func (s *Store) Restore(ctx context.Context, tenantID uuid.UUID, token string, p payload.Payload) error {
	data, err := json.Marshal(entry{TenantID: tenantID, Payload: p})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := s.rdb.Set(ctx, key(token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("restore payload: %w", err)
	}
	return nil
}

func decode(raw []byte, err error, tenantID uuid.UUID) (*payload.Payload, error) {
	if errors.Is(err, redis.Nil) {
		return nil, errTokenNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if e.TenantID != tenantID {
		return nil, errTokenNotFound()
	}
	return &e.Payload, nil
}

func errTokenNotFound() error {
	return apperr.NotFound("enrichment token not found or expired")
}
