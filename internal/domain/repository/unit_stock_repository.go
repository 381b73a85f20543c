package repository

import (
	"context"

	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// UnitStockRepository proyección de stock por (ítem, unidad).
// Update es compare-and-set sobre RowVersion: devuelve ErrVersionConflict si la fila cambió.
type UnitStockRepository interface {
	Get(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para que los proyectores de una misma clave se serialicen.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error)
	GetByID(ctx context.Context, id string) (*entity.UnitStock, error)
	Create(ctx context.Context, s *entity.UnitStock) error
	Update(ctx context.Context, s *entity.UnitStock) error
	ListByUnit(ctx context.Context, unitID string) ([]*entity.UnitStock, error)
}
