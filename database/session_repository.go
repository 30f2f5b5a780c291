package database

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/redis/go-redis/v9"
)

// SessionRepository persists the credential of a browser session. The token
// and the user record are always written and removed together.
type SessionRepository interface {
	Save(ctx context.Context, sid string, cred models.Credential) error
	// Load returns nil, nil when nothing usable is stored.
	Load(ctx context.Context, sid string) (*models.Credential, error)
	Delete(ctx context.Context, sid string) error
}

type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, ttl: ttl}
}

func TokenKey(sid string) string { return "pos:session:" + sid + ":access_token" }
func UserKey(sid string) string  { return "pos:session:" + sid + ":user" }

func (r *RedisSessionRepository) Save(ctx context.Context, sid string, cred models.Credential) error {
	user, err := json.Marshal(cred.User)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, TokenKey(sid), cred.AccessToken, r.ttl)
		pipe.Set(ctx, UserKey(sid), user, r.ttl)
		return nil
	})
	return err
}

func (r *RedisSessionRepository) Load(ctx context.Context, sid string) (*models.Credential, error) {
	vals, err := r.client.MGet(ctx, TokenKey(sid), UserKey(sid)).Result()
	if err != nil {
		return nil, err
	}

	token, _ := vals[0].(string)
	rawUser, _ := vals[1].(string)
	if token == "" && rawUser == "" {
		return nil, nil
	}

	var user models.StoredUser
	if token == "" || rawUser == "" || json.Unmarshal([]byte(rawUser), &user) != nil {
		// half-written pair; drop both
		return nil, r.Delete(ctx, sid)
	}
	return &models.Credential{AccessToken: token, User: user}, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sid string) error {
	return r.client.Del(ctx, TokenKey(sid), UserKey(sid)).Err()
}

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e memoryEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemorySessionRepository is used when no redis is configured.
type MemorySessionRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry[models.Credential]
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		entries: make(map[string]memoryEntry[models.Credential]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemorySessionRepository) Save(_ context.Context, sid string, cred models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := memoryEntry[models.Credential]{value: cred}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.entries[sid] = entry
	return nil
}

func (r *MemorySessionRepository) Load(_ context.Context, sid string) (*models.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sid]
	if !ok {
		return nil, nil
	}
	if entry.expired(r.now()) {
		delete(r.entries, sid)
		return nil, nil
	}
	cred := entry.value
	return &cred, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sid)
	return nil
}
