package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// MovementFilter filtros de consulta del libro. Campos vacíos no filtran.
type MovementFilter struct {
	ItemID    string
	UnitID    string
	Reference string
	RequestID string
	Limit     int
	Offset    int
}

// KeyTotal suma con signo y último id de los movimientos de una clave (ítem, unidad).
type KeyTotal struct {
	Key            entity.StockKey
	Quantity       decimal.Decimal
	LastMovementID int64
}

// MovementRepository libro de movimientos: solo se inserta, nunca se actualiza ni se borra.
type MovementRepository interface {
	// Append asigna ID y CreatedAt. Un segundo movimiento para el mismo RequestID devuelve ErrDuplicate.
	Append(ctx context.Context, m *entity.Movement) error
	ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.Movement, error)
	ExistsForRequest(ctx context.Context, requestID string) (bool, error)
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, error)
	// Totals agrega por clave; unitID vacío = todas las unidades.
	Totals(ctx context.Context, unitID string) ([]KeyTotal, error)
}
