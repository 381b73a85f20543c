package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.DirectoryRepository = (*DirectoryRepo)(nil)

// DirectoryRepo lectura de usuarios, unidades e ítems. Las tablas las alimenta el sistema de personal.
type DirectoryRepo struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository construye el adaptador del directorio.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepo {
	return &DirectoryRepo{pool: pool}
}

// GetUser obtiene un usuario por ID.
func (r *DirectoryRepo) GetUser(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, name, email, unit_id, role, active FROM users WHERE id = $1`
	var u entity.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.UnitID, &u.Role, &u.Active)
	if err != nil {
		if err = notFound(err); err == domain.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUnit obtiene una unidad por ID.
func (r *DirectoryRepo) GetUnit(ctx context.Context, id string) (*entity.Unit, error) {
	var u entity.Unit
	err := r.pool.QueryRow(ctx, `SELECT id, name, active FROM units WHERE id = $1`, id).Scan(&u.ID, &u.Name, &u.Active)
	if err != nil {
		if err = notFound(err); err == domain.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return &u, nil
}

// GetItem obtiene un ítem del catálogo por ID.
func (r *DirectoryRepo) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	var i entity.Item
	err := r.pool.QueryRow(ctx, `SELECT id, name, unit_measure, is_furniture FROM items WHERE id = $1`, id).
		Scan(&i.ID, &i.Name, &i.UnitMeasure, &i.IsFurniture)
	if err != nil {
		if err = notFound(err); err == domain.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &i, nil
}

// Ping comprueba la conexión (health check).
func (r *DirectoryRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
