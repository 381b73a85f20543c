package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.RequestRepository = (*RequestRepo)(nil)

const requestColumns = `id, item_id, requesting_unit_id, requested_by_user_id, quantity, urgency, status, observations,
	batch_id, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, processing_at,
	separated_by, separated_at, dispatched_at, completed_at, row_version, created_at, updated_at`

// RequestRepo pedidos de material sobre PostgreSQL.
type RequestRepo struct {
	q Querier
}

func NewRequestRepository(q Querier) *RequestRepo {
	return &RequestRepo{q: q}
}

func scanRequest(row pgx.Row) (*entity.Request, error) {
	var (
		r      entity.Request
		status string
	)
	err := row.Scan(&r.ID, &r.ItemID, &r.RequestingUnitID, &r.RequestedByUserID, &r.Quantity, &r.Urgency, &status,
		&r.Observations, &r.BatchID, &r.ApprovedBy, &r.ApprovedAt, &r.RejectedBy, &r.RejectedAt, &r.RejectionReason,
		&r.ProcessingAt, &r.SeparatedBy, &r.SeparatedAt, &r.DispatchedAt, &r.CompletedAt, &r.RowVersion,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	r.Status = entity.Status(status)
	return &r, nil
}

func (r *RequestRepo) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (id, item_id, requesting_unit_id, requested_by_user_id, quantity, urgency, status,
			observations, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $10)`
	_, err := r.q.Exec(ctx, query, req.ID, req.ItemID, req.RequestingUnitID, req.RequestedByUserID, req.Quantity,
		req.Urgency, string(req.Status), req.Observations, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert request: %w", err)
	}
	req.RowVersion = 1
	return nil
}

func (r *RequestRepo) Get(ctx context.Context, id string) (*entity.Request, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, err
}

// Update compare-and-set sobre row_version.
func (r *RequestRepo) Update(ctx context.Context, req *entity.Request) error {
	query := `
		UPDATE requests SET
			status = $1, observations = $2, batch_id = $3, approved_by = $4, approved_at = $5,
			rejected_by = $6, rejected_at = $7, rejection_reason = $8, processing_at = $9,
			separated_by = $10, separated_at = $11, dispatched_at = $12, completed_at = $13,
			row_version = row_version + 1, updated_at = $14
		WHERE id = $15 AND row_version = $16`
	tag, err := r.q.Exec(ctx, query, string(req.Status), req.Observations, req.BatchID, req.ApprovedBy, req.ApprovedAt,
		req.RejectedBy, req.RejectedAt, req.RejectionReason, req.ProcessingAt, req.SeparatedBy, req.SeparatedAt,
		req.DispatchedAt, req.CompletedAt, req.UpdatedAt, req.ID, req.RowVersion)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return casMiss(ctx, r.q, "requests", req.ID)
	}
	req.RowVersion++
	return nil
}

// List más recientes primero.
func (r *RequestRepo) List(ctx context.Context, f repository.RequestFilter) ([]*entity.Request, error) {
	var w where
	w.eq("status", string(f.Status))
	w.eq("requesting_unit_id", f.UnitID)
	w.eq("requested_by_user_id", f.RequestedBy)
	w.eq("batch_id", f.BatchID)
	query := `SELECT ` + requestColumns + ` FROM requests` + w.sql() + ` ORDER BY created_at DESC, id`
	query += w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()
	var out []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
