package database

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/redis/go-redis/v9"
)

// CartRepository keeps the cart of a session so it survives a restart.
type CartRepository interface {
	GetCart(ctx context.Context, sid string) ([]models.CartLine, error)
	SaveCart(ctx context.Context, sid string, lines []models.CartLine) error
	DeleteCart(ctx context.Context, sid string) error
}

type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func CartKey(sid string) string { return "pos:cart:" + sid }

func (r *RedisCartRepository) GetCart(ctx context.Context, sid string) ([]models.CartLine, error) {
	data, err := r.client.Get(ctx, CartKey(sid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SaveCart stores lines; an empty cart removes the key.
func (r *RedisCartRepository) SaveCart(ctx context.Context, sid string, lines []models.CartLine) error {
	if len(lines) == 0 {
		return r.DeleteCart(ctx, sid)
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, CartKey(sid), data, r.ttl).Err()
}

func (r *RedisCartRepository) DeleteCart(ctx context.Context, sid string) error {
	return r.client.Del(ctx, CartKey(sid)).Err()
}

type MemoryCartRepository struct {
	mu    sync.Mutex
	carts map[string][]models.CartLine
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string][]models.CartLine)}
}

func (r *MemoryCartRepository) GetCart(_ context.Context, sid string) ([]models.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines, ok := r.carts[sid]
	if !ok {
		return nil, nil
	}
	return append([]models.CartLine(nil), lines...), nil
}

func (r *MemoryCartRepository) SaveCart(_ context.Context, sid string, lines []models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(lines) == 0 {
		delete(r.carts, sid)
		return nil
	}
	r.carts[sid] = append([]models.CartLine(nil), lines...)
	return nil
}

func (r *MemoryCartRepository) DeleteCart(_ context.Context, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sid)
	return nil
}
