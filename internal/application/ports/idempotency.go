package ports

import (
	"context"
	"time"
)

// StoredResponse respuesta guardada para repetirla ante el mismo Idempotency-Key.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore guarda la primera respuesta de cada clave.
// Reserve marca la clave como en curso; devuelve false si otra petición la tiene.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, bool, error)
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
