package repository

import (
	"context"

	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// RequestFilter filtros de listado de pedidos de material.
type RequestFilter struct {
	Status      entity.Status
	UnitID      string
	RequestedBy string
	BatchID     string
	Limit       int
	Offset      int
}

// RequestRepository pedidos de material. Nunca se borran.
type RequestRepository interface {
	Create(ctx context.Context, r *entity.Request) error
	Get(ctx context.Context, id string) (*entity.Request, error)
	// Update compare-and-set sobre RowVersion.
	Update(ctx context.Context, r *entity.Request) error
	List(ctx context.Context, f RequestFilter) ([]*entity.Request, error)
}
