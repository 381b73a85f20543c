package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, type, item_id, unit_id, user_id, quantity, notes, reference, COALESCE(request_id, ''), created_at`

// MovementRepo libro de movimientos sobre PostgreSQL. El id lo asigna la secuencia (orden global).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append inserta el movimiento y completa ID y CreatedAt.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (type, item_id, unit_id, user_id, quantity, notes, reference, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
		RETURNING id, created_at`
	var createdAt any
	if !m.CreatedAt.IsZero() {
		createdAt = m.CreatedAt
	}
	err := r.q.QueryRow(ctx, query,
		string(m.Type), m.ItemID, m.UnitID, m.UserID, m.Quantity, m.Notes, m.Reference, nullable(m.RequestID), createdAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByKey movimientos de una clave en orden del libro.
func (r *MovementRepo) ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE item_id = $1 AND unit_id = $2 ORDER BY id`
	rows, err := r.q.Query(ctx, query, key.ItemID, key.UnitID)
	if err != nil {
		return nil, fmt.Errorf("list movements by key: %w", err)
	}
	return collectMovements(rows)
}

func (r *MovementRepo) ExistsForRequest(ctx context.Context, requestID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movements WHERE request_id = $1)`, requestID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("movement exists for request: %w", err)
	}
	return exists, nil
}

// List más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var w where
	w.eq("item_id", f.ItemID)
	w.eq("unit_id", f.UnitID)
	w.eq("reference", f.Reference)
	w.eq("request_id", f.RequestID)
	query := `SELECT ` + movementColumns + ` FROM movements` + w.sql() + ` ORDER BY id DESC`
	query += w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return collectMovements(rows)
}

// Totals suma con signo por clave; el signo por tipo es el mismo de inventory.SignedQuantity.
func (r *MovementRepo) Totals(ctx context.Context, unitID string) ([]repository.KeyTotal, error) {
	query := `
		SELECT item_id, unit_id,
		       COALESCE(SUM(CASE WHEN type IN ('entry', 'return') THEN quantity ELSE -quantity END), 0),
		       MAX(id)
		FROM movements
		WHERE ($1 = '' OR unit_id = $1)
		GROUP BY item_id, unit_id
		ORDER BY item_id, unit_id`
	rows, err := r.q.Query(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("movement totals: %w", err)
	}
	defer rows.Close()
	var out []repository.KeyTotal
	for rows.Next() {
		t := repository.KeyTotal{Quantity: decimal.Zero}
		if err := rows.Scan(&t.Key.ItemID, &t.Key.UnitID, &t.Quantity, &t.LastMovementID); err != nil {
			return nil, fmt.Errorf("scan movement total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	var out []*entity.Movement
	for rows.Next() {
		var (
			m   entity.Movement
			typ string
		)
		if err := rows.Scan(&m.ID, &typ, &m.ItemID, &m.UnitID, &m.UserID, &m.Quantity, &m.Notes,
			&m.Reference, &m.RequestID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Type = entity.MovementType(typ)
		out = append(out, &m)
	}
	return out, rows.Err()
}
