package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.FurnitureRequestRepository = (*FurnitureRequestRepo)(nil)

const furnitureColumns = `id, item_id, description, requesting_unit_id, requested_by_user_id, designer_user_id, quantity,
	status, observations, batch_id, designer_approved_by, designer_approved_at, storage_approved_by, storage_approved_at,
	rejected_by, rejected_at, rejection_reason, dispatched_at, completed_at, row_version, created_at, updated_at`

// FurnitureRequestRepo pedidos de mueble sobre PostgreSQL.
type FurnitureRequestRepo struct {
	q Querier
}

func NewFurnitureRequestRepository(q Querier) *FurnitureRequestRepo {
	return &FurnitureRequestRepo{q: q}
}

func scanFurniture(row pgx.Row) (*entity.FurnitureRequest, error) {
	var (
		f      entity.FurnitureRequest
		status string
	)
	err := row.Scan(&f.ID, &f.ItemID, &f.Description, &f.RequestingUnitID, &f.RequestedByUserID, &f.DesignerUserID,
		&f.Quantity, &status, &f.Observations, &f.BatchID, &f.DesignerApprovedBy, &f.DesignerApprovedAt,
		&f.StorageApprovedBy, &f.StorageApprovedAt, &f.RejectedBy, &f.RejectedAt, &f.RejectionReason,
		&f.DispatchedAt, &f.CompletedAt, &f.RowVersion, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	f.Status = entity.Status(status)
	return &f, nil
}

func (r *FurnitureRequestRepo) Create(ctx context.Context, f *entity.FurnitureRequest) error {
	query := `
		INSERT INTO furniture_requests (id, item_id, description, requesting_unit_id, requested_by_user_id,
			designer_user_id, quantity, status, observations, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)`
	_, err := r.q.Exec(ctx, query, f.ID, f.ItemID, f.Description, f.RequestingUnitID, f.RequestedByUserID,
		f.DesignerUserID, f.Quantity, string(f.Status), f.Observations, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert furniture request: %w", err)
	}
	f.RowVersion = 1
	return nil
}

func (r *FurnitureRequestRepo) Get(ctx context.Context, id string) (*entity.FurnitureRequest, error) {
	f, err := scanFurniture(r.q.QueryRow(ctx, `SELECT `+furnitureColumns+` FROM furniture_requests WHERE id = $1`, id))
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("get furniture request: %w", err)
	}
	return f, err
}

// Update compare-and-set sobre row_version.
func (r *FurnitureRequestRepo) Update(ctx context.Context, f *entity.FurnitureRequest) error {
	query := `
		UPDATE furniture_requests SET
			status = $1, designer_user_id = $2, observations = $3, batch_id = $4,
			designer_approved_by = $5, designer_approved_at = $6, storage_approved_by = $7, storage_approved_at = $8,
			rejected_by = $9, rejected_at = $10, rejection_reason = $11, dispatched_at = $12, completed_at = $13,
			row_version = row_version + 1, updated_at = $14
		WHERE id = $15 AND row_version = $16`
	tag, err := r.q.Exec(ctx, query, string(f.Status), f.DesignerUserID, f.Observations, f.BatchID,
		f.DesignerApprovedBy, f.DesignerApprovedAt, f.StorageApprovedBy, f.StorageApprovedAt,
		f.RejectedBy, f.RejectedAt, f.RejectionReason, f.DispatchedAt, f.CompletedAt, f.UpdatedAt, f.ID, f.RowVersion)
	if err != nil {
		return fmt.Errorf("update furniture request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return casMiss(ctx, r.q, "furniture_requests", f.ID)
	}
	f.RowVersion++
	return nil
}

func (r *FurnitureRequestRepo) List(ctx context.Context, f repository.FurnitureFilter) ([]*entity.FurnitureRequest, error) {
	var w where
	w.eq("status", string(f.Status))
	w.eq("requesting_unit_id", f.UnitID)
	w.eq("designer_user_id", f.DesignerUserID)
	w.eq("batch_id", f.BatchID)
	query := `SELECT ` + furnitureColumns + ` FROM furniture_requests` + w.sql() + ` ORDER BY created_at DESC, id`
	query += w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list furniture requests: %w", err)
	}
	defer rows.Close()
	var out []*entity.FurnitureRequest
	for rows.Next() {
		fr, err := scanFurniture(rows)
		if err != nil {
			return nil, fmt.Errorf("scan furniture request: %w", err)
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}
