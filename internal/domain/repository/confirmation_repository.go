package repository

import (
	"context"

	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// ConfirmationRepository confirmaciones de lote (inmutables).
// Create devuelve ErrDuplicate ante una segunda delivery/receipt del lote
// o una segunda requester del mismo usuario.
type ConfirmationRepository interface {
	Create(ctx context.Context, c *entity.DeliveryConfirmation) error
	ListByBatch(ctx context.Context, batchID string) ([]*entity.DeliveryConfirmation, error)
}
