package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.UnitStockRepository = (*UnitStockRepo)(nil)

const stockColumns = `id, item_id, unit_id, quantity, minimum_quantity, location, last_movement_id, row_version, updated_at`

// UnitStockRepo proyección de stock sobre PostgreSQL (usable con pool o tx).
type UnitStockRepo struct {
	q Querier
}

// NewUnitStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewUnitStockRepository(q Querier) *UnitStockRepo {
	return &UnitStockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.UnitStock, error) {
	var s entity.UnitStock
	err := row.Scan(&s.ID, &s.ItemID, &s.UnitID, &s.Quantity, &s.MinimumQuantity, &s.Location,
		&s.LastMovementID, &s.RowVersion, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// Get obtiene la fila de stock de un ítem en una unidad.
func (r *UnitStockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error) {
	query := `SELECT ` + stockColumns + ` FROM unit_stock WHERE item_id = $1 AND unit_id = $2`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.ItemID, key.UnitID))
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("get unit stock: %w", err)
	}
	return s, err
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *UnitStockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error) {
	query := `SELECT ` + stockColumns + ` FROM unit_stock WHERE item_id = $1 AND unit_id = $2 FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.ItemID, key.UnitID))
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("get unit stock for update: %w", err)
	}
	return s, err
}

func (r *UnitStockRepo) GetByID(ctx context.Context, id string) (*entity.UnitStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM unit_stock WHERE id = $1`, id))
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("get unit stock by id: %w", err)
	}
	return s, err
}

// Create inserta la fila; ErrDuplicate si otra transacción ya creó la clave.
func (r *UnitStockRepo) Create(ctx context.Context, s *entity.UnitStock) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `
		INSERT INTO unit_stock (id, item_id, unit_id, quantity, minimum_quantity, location, last_movement_id, row_version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)`
	_, err := r.q.Exec(ctx, query, s.ID, s.ItemID, s.UnitID, s.Quantity, s.MinimumQuantity, s.Location,
		s.LastMovementID, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert unit stock: %w", err)
	}
	s.RowVersion = 1
	return nil
}

// Update compare-and-set sobre row_version.
func (r *UnitStockRepo) Update(ctx context.Context, s *entity.UnitStock) error {
	query := `
		UPDATE unit_stock
		SET quantity = $1, minimum_quantity = $2, location = $3, last_movement_id = $4,
		    row_version = row_version + 1, updated_at = $5
		WHERE id = $6 AND row_version = $7`
	tag, err := r.q.Exec(ctx, query, s.Quantity, s.MinimumQuantity, s.Location, s.LastMovementID,
		s.UpdatedAt, s.ID, s.RowVersion)
	if err != nil {
		return fmt.Errorf("update unit stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return casMiss(ctx, r.q, "unit_stock", s.ID)
	}
	s.RowVersion++
	return nil
}

func (r *UnitStockRepo) ListByUnit(ctx context.Context, unitID string) ([]*entity.UnitStock, error) {
	rows, err := r.q.Query(ctx, `SELECT `+stockColumns+` FROM unit_stock WHERE unit_id = $1 ORDER BY item_id`, unitID)
	if err != nil {
		return nil, fmt.Errorf("list unit stock: %w", err)
	}
	defer rows.Close()
	var out []*entity.UnitStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// casMiss distingue fila inexistente de versión vieja cuando un UPDATE condicional no afectó filas.
func casMiss(ctx context.Context, q Querier, table, id string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrVersionConflict
}
