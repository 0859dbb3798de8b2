package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers logged-out tokens until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, raw string, expiresAt time.Time) error
	Revoked(ctx context.Context, raw string) (bool, error)
}

// fingerprint keys the revocation list by HMAC so raw tokens are never stored.
func fingerprint(raw, secret string) string {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(raw))
	return hex.EncodeToString(m.Sum(nil))
}

// MemoryRevoker keeps revocations in process memory.
type MemoryRevoker struct {
	secret string
	mu     sync.Mutex
	until  map[string]time.Time
}

func NewMemoryRevoker(secret string) *MemoryRevoker {
	return &MemoryRevoker{secret: secret, until: make(map[string]time.Time)}
}

func (m *MemoryRevoker) Revoke(_ context.Context, raw string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, exp := range m.until {
		if now.After(exp) {
			delete(m.until, k)
		}
	}
	m.until[fingerprint(raw, m.secret)] = expiresAt
	return nil
}

func (m *MemoryRevoker) Revoked(_ context.Context, raw string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.until[fingerprint(raw, m.secret)]
	return ok && time.Now().Before(exp), nil
}

// RedisRevoker stores revocations as expiring keys so every replica sees them.
type RedisRevoker struct {
	client *redis.Client
	secret string
	prefix string
}

func NewRedisRevoker(client *redis.Client, secret string) *RedisRevoker {
	return &RedisRevoker{client: client, secret: secret, prefix: "attendance:revoked:"}
}

func (r *RedisRevoker) Revoke(ctx context.Context, raw string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+fingerprint(raw, r.secret), 1, ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, raw string) (bool, error) {
	err := r.client.Get(ctx, r.prefix+fingerprint(raw, r.secret)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
