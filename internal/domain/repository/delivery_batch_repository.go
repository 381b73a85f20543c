package repository

import (
	"context"

	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// BatchFilter filtros de listado de lotes.
type BatchFilter struct {
	Status       entity.Status
	DriverUserID string
	TargetUnitID string
	Limit        int
	Offset       int
}

// DeliveryBatchRepository lotes de entrega.
type DeliveryBatchRepository interface {
	// Create devuelve ErrDuplicate si el código de escaneo ya existe.
	Create(ctx context.Context, b *entity.DeliveryBatch) error
	Get(ctx context.Context, id string) (*entity.DeliveryBatch, error)
	// GetForUpdate bloquea la fila del lote hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.DeliveryBatch, error)
	GetByScanCode(ctx context.Context, scanCode string) (*entity.DeliveryBatch, error)
	Update(ctx context.Context, b *entity.DeliveryBatch) error
	List(ctx context.Context, f BatchFilter) ([]*entity.DeliveryBatch, error)
}
