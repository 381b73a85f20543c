package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var (
	_ repository.DeliveryBatchRepository = (*BatchRepo)(nil)
	_ repository.ConfirmationRepository  = (*ConfirmationRepo)(nil)
)

const batchColumns = `id, request_ids, furniture_request_ids, target_unit_id, driver_user_id, scan_code, status,
	created_by, notes, created_at, dispatched_at, delivery_confirmed_at, pending_confirmation_at, completed_at,
	row_version, updated_at`

// BatchRepo lotes de entrega sobre PostgreSQL. Los ids de pedidos van en columnas TEXT[].
type BatchRepo struct {
	q Querier
}

func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func scanBatch(row pgx.Row) (*entity.DeliveryBatch, error) {
	var (
		b      entity.DeliveryBatch
		status string
	)
	err := row.Scan(&b.ID, &b.RequestIDs, &b.FurnitureRequestIDs, &b.TargetUnitID, &b.DriverUserID, &b.ScanCode,
		&status, &b.CreatedBy, &b.Notes, &b.CreatedAt, &b.DispatchedAt, &b.DeliveryConfirmedAt,
		&b.PendingConfirmationAt, &b.CompletedAt, &b.RowVersion, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	b.Status = entity.Status(status)
	return &b, nil
}

// Create inserta el lote; ErrDuplicate si el código de escaneo ya existe.
func (r *BatchRepo) Create(ctx context.Context, b *entity.DeliveryBatch) error {
	query := `
		INSERT INTO delivery_batches (id, request_ids, furniture_request_ids, target_unit_id, driver_user_id,
			scan_code, status, created_by, notes, created_at, row_version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11)`
	_, err := r.q.Exec(ctx, query, b.ID, nonNil(b.RequestIDs), nonNil(b.FurnitureRequestIDs), b.TargetUnitID,
		b.DriverUserID, b.ScanCode, string(b.Status), b.CreatedBy, b.Notes, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert delivery batch: %w", err)
	}
	b.RowVersion = 1
	return nil
}

func (r *BatchRepo) Get(ctx context.Context, id string) (*entity.DeliveryBatch, error) {
	return r.one(ctx, "get delivery batch", `SELECT `+batchColumns+` FROM delivery_batches WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.DeliveryBatch, error) {
	return r.one(ctx, "get delivery batch for update", `SELECT `+batchColumns+` FROM delivery_batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *BatchRepo) GetByScanCode(ctx context.Context, scanCode string) (*entity.DeliveryBatch, error) {
	return r.one(ctx, "get delivery batch by scan code", `SELECT `+batchColumns+` FROM delivery_batches WHERE scan_code = $1`, scanCode)
}

func (r *BatchRepo) one(ctx context.Context, op, query string, arg string) (*entity.DeliveryBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, arg))
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, err
}

// Update compare-and-set sobre row_version. Los pedidos del lote no cambian después de crearlo.
func (r *BatchRepo) Update(ctx context.Context, b *entity.DeliveryBatch) error {
	query := `
		UPDATE delivery_batches SET
			status = $1, notes = $2, dispatched_at = $3, delivery_confirmed_at = $4,
			pending_confirmation_at = $5, completed_at = $6, row_version = row_version + 1, updated_at = $7
		WHERE id = $8 AND row_version = $9`
	tag, err := r.q.Exec(ctx, query, string(b.Status), b.Notes, b.DispatchedAt, b.DeliveryConfirmedAt,
		b.PendingConfirmationAt, b.CompletedAt, b.UpdatedAt, b.ID, b.RowVersion)
	if err != nil {
		return fmt.Errorf("update delivery batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return casMiss(ctx, r.q, "delivery_batches", b.ID)
	}
	b.RowVersion++
	return nil
}

func (r *BatchRepo) List(ctx context.Context, f repository.BatchFilter) ([]*entity.DeliveryBatch, error) {
	var w where
	w.eq("status", string(f.Status))
	w.eq("driver_user_id", f.DriverUserID)
	w.eq("target_unit_id", f.TargetUnitID)
	query := `SELECT ` + batchColumns + ` FROM delivery_batches` + w.sql() + ` ORDER BY created_at DESC, id`
	query += w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list delivery batches: %w", err)
	}
	defer rows.Close()
	var out []*entity.DeliveryBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// ConfirmationRepo confirmaciones de lote; los índices únicos parciales imponen una
// delivery y una receipt por lote y una requester por usuario.
type ConfirmationRepo struct {
	q Querier
}

func NewConfirmationRepository(q Querier) *ConfirmationRepo {
	return &ConfirmationRepo{q: q}
}

func (r *ConfirmationRepo) Create(ctx context.Context, c *entity.DeliveryConfirmation) error {
	query := `
		INSERT INTO delivery_confirmations (id, batch_id, type, confirmed_by_user_id, attested_by_user_id,
			photo_ref, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, c.ID, c.BatchID, string(c.Type), c.ConfirmedByUserID, c.AttestedByUserID,
		c.PhotoRef, c.Notes, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert delivery confirmation: %w", err)
	}
	return nil
}

func (r *ConfirmationRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.DeliveryConfirmation, error) {
	query := `
		SELECT id, batch_id, type, confirmed_by_user_id, attested_by_user_id, photo_ref, notes, created_at
		FROM delivery_confirmations WHERE batch_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("list delivery confirmations: %w", err)
	}
	defer rows.Close()
	var out []*entity.DeliveryConfirmation
	for rows.Next() {
		var (
			c   entity.DeliveryConfirmation
			typ string
		)
		if err := rows.Scan(&c.ID, &c.BatchID, &typ, &c.ConfirmedByUserID, &c.AttestedByUserID, &c.PhotoRef,
			&c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery confirmation: %w", err)
		}
		c.Type = entity.ConfirmationType(typ)
		out = append(out, &c)
	}
	return out, rows.Err()
}
