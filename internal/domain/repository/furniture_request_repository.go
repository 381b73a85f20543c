package repository

import (
	"context"

	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// FurnitureFilter filtros de listado de pedidos de mueble.
type FurnitureFilter struct {
	Status         entity.Status
	UnitID         string
	DesignerUserID string
	BatchID        string
	Limit          int
	Offset         int
}

// FurnitureRequestRepository pedidos de mueble al diseñador.
type FurnitureRequestRepository interface {
	Create(ctx context.Context, f *entity.FurnitureRequest) error
	Get(ctx context.Context, id string) (*entity.FurnitureRequest, error)
	Update(ctx context.Context, f *entity.FurnitureRequest) error
	List(ctx context.Context, f FurnitureFilter) ([]*entity.FurnitureRequest, error)
}
