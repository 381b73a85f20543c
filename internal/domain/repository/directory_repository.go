package repository

import (
	"context"

	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// DirectoryRepository lectura de usuarios, unidades e ítems (administrados por otro sistema).
type DirectoryRepository interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetUnit(ctx context.Context, id string) (*entity.Unit, error)
	GetItem(ctx context.Context, id string) (*entity.Item, error)
}
