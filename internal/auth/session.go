package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"playhub/internal/models"
	"playhub/internal/repository"

	"github.com/redis/go-redis/v9"
)

// TokenValidator decides whether a signed token is still the subject's live session.
type TokenValidator interface {
	IsValid(ctx context.Context, subjectID, token string) (bool, error)
}

// SessionStore keeps one active session per subject. Saving a new token replaces the old one.
type SessionStore interface {
	TokenValidator
	Save(ctx context.Context, subjectID, token string, ttl time.Duration) error
	Revoke(ctx context.Context, subjectID string) error
}

// HashToken returns the hex SHA-256 of a token. Stores never keep raw tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func sameHash(stored, token string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(HashToken(token))) == 1
}

// RedisSessionStore keeps admin_session:<id> -> token hash with the token's TTL.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(subjectID string) string {
	return "admin_session:" + subjectID
}

func (s *RedisSessionStore) Save(ctx context.Context, subjectID, token string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, sessionKey(subjectID), HashToken(token), ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, subjectID string) error {
	if err := s.rdb.Del(ctx, sessionKey(subjectID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) IsValid(ctx context.Context, subjectID, token string) (bool, error) {
	stored, err := s.rdb.Get(ctx, sessionKey(subjectID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	return sameHash(stored, token), nil
}

// DBSessionStore keeps the token hash on the admin row. Expiry is left to the JWT exp claim.
type DBSessionStore struct {
	admins repository.AdminRepository
}

func NewDBSessionStore(admins repository.AdminRepository) *DBSessionStore {
	return &DBSessionStore{admins: admins}
}

func (s *DBSessionStore) Save(ctx context.Context, subjectID, token string, _ time.Duration) error {
	hash := HashToken(token)
	return s.admins.SetTokenHash(ctx, subjectID, &hash)
}

func (s *DBSessionStore) Revoke(ctx context.Context, subjectID string) error {
	return s.admins.SetTokenHash(ctx, subjectID, nil)
}

func (s *DBSessionStore) IsValid(ctx context.Context, subjectID, token string) (bool, error) {
	admin, err := s.admins.GetByID(ctx, subjectID)
	if err != nil {
		if models.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if admin.CurrentTokenHash == nil {
		return false, nil
	}
	return sameHash(*admin.CurrentTokenHash, token), nil
}

// NewSessionStore picks the configured backend. "redis" falls back to the database
// when no Redis client is available.
func NewSessionStore(kind string, rdb *redis.Client, admins repository.AdminRepository) SessionStore {
	if kind == "redis" && rdb != nil {
		return NewRedisSessionStore(rdb)
	}
	return NewDBSessionStore(admins)
}
