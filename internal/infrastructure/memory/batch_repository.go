package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var (
	_ repository.DeliveryBatchRepository = (*BatchRepo)(nil)
	_ repository.ConfirmationRepository  = (*ConfirmationRepo)(nil)
)

// BatchRepo lotes en memoria.
type BatchRepo struct {
	s *Store
}

func copyBatch(b *entity.DeliveryBatch) *entity.DeliveryBatch {
	cp := *b
	cp.RequestIDs = append([]string(nil), b.RequestIDs...)
	cp.FurnitureRequestIDs = append([]string(nil), b.FurnitureRequestIDs...)
	return &cp
}

func (r *BatchRepo) Create(ctx context.Context, b *entity.DeliveryBatch) error {
	if err := r.s.fail(OpBatchWrite); err != nil {
		return err
	}
	if _, ok := r.s.data.batches[b.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.s.data.batches {
		if existing.ScanCode == b.ScanCode {
			return domain.ErrDuplicate
		}
	}
	b.RowVersion = 1
	r.s.data.batches[b.ID] = copyBatch(b)
	return nil
}

func (r *BatchRepo) Get(ctx context.Context, id string) (*entity.DeliveryBatch, error) {
	b, ok := r.s.data.batches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyBatch(b), nil
}

// GetForUpdate el candado del store ya serializa la transacción.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.DeliveryBatch, error) {
	return r.Get(ctx, id)
}

func (r *BatchRepo) GetByScanCode(ctx context.Context, scanCode string) (*entity.DeliveryBatch, error) {
	for _, b := range r.s.data.batches {
		if b.ScanCode == scanCode {
			return copyBatch(b), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *BatchRepo) Update(ctx context.Context, b *entity.DeliveryBatch) error {
	if err := r.s.fail(OpBatchWrite); err != nil {
		return err
	}
	cur, ok := r.s.data.batches[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != b.RowVersion {
		return domain.ErrVersionConflict
	}
	b.RowVersion++
	r.s.data.batches[b.ID] = copyBatch(b)
	return nil
}

func (r *BatchRepo) List(ctx context.Context, f repository.BatchFilter) ([]*entity.DeliveryBatch, error) {
	var out []*entity.DeliveryBatch
	for _, b := range r.s.data.batches {
		if f.Status != "" && b.Status != f.Status ||
			f.DriverUserID != "" && b.DriverUserID != f.DriverUserID ||
			f.TargetUnitID != "" && b.TargetUnitID != f.TargetUnitID {
			continue
		}
		out = append(out, copyBatch(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

// ConfirmationRepo confirmaciones en memoria.
type ConfirmationRepo struct {
	s *Store
}

func (r *ConfirmationRepo) Create(ctx context.Context, c *entity.DeliveryConfirmation) error {
	if err := r.s.fail(OpConfirmationWrite); err != nil {
		return err
	}
	for _, existing := range r.s.data.confirmations {
		if existing.BatchID != c.BatchID || existing.Type != c.Type {
			continue
		}
		if c.Type != entity.ConfirmationRequester || existing.ConfirmedByUserID == c.ConfirmedByUserID {
			return domain.ErrDuplicate
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	cp := *c
	r.s.data.confirmations = append(r.s.data.confirmations, &cp)
	return nil
}

func (r *ConfirmationRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.DeliveryConfirmation, error) {
	var out []*entity.DeliveryConfirmation
	for _, c := range r.s.data.confirmations {
		if c.BatchID == batchID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}
