// Package redis guarda las respuestas idempotentes en Redis cuando REDIS_ADDR está configurado.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/pkg/config"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const (
	responsePrefix = "despacho:idem:resp:"
	lockPrefix     = "despacho:idem:lock:"
	lockTTL        = 30 * time.Second
)

// NewClient crea el cliente y verifica la conexión. Devuelve nil, nil si no hay dirección configurada.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// IdempotencyStore implementación sobre Redis.
type IdempotencyStore struct {
	client goredis.UniversalClient
}

func NewIdempotencyStore(client goredis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.StoredResponse, bool, error) {
	raw, err := s.client.Get(ctx, responsePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var resp ports.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("decodificar respuesta guardada: %w", err)
	}
	return &resp, true, nil
}

// Reserve SET NX con vencimiento corto para que una petición caída no bloquee la clave.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 || ttl > lockTTL {
		ttl = lockTTL
	}
	ok, err := s.client.SetNX(ctx, lockPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, responsePrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, lockPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
