package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/inventory"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en memoria.
type MovementRepo struct {
	s *Store
}

func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if err := r.s.fail(OpMovementAppend); err != nil {
		return err
	}
	d := r.s.data
	if m.RequestID != "" {
		for _, existing := range d.movements {
			if existing.RequestID == m.RequestID {
				return domain.ErrDuplicate
			}
		}
	}
	d.seq++
	m.ID = d.seq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.s.now()
	}
	cp := *m
	d.movements = append(d.movements, &cp)
	return nil
}

func (r *MovementRepo) ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range r.s.data.movements {
		if m.Key() == key {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MovementRepo) ExistsForRequest(ctx context.Context, requestID string) (bool, error) {
	for _, m := range r.s.data.movements {
		if m.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

// List más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range r.s.data.movements {
		if f.ItemID != "" && m.ItemID != f.ItemID ||
			f.UnitID != "" && m.UnitID != f.UnitID ||
			f.Reference != "" && m.Reference != f.Reference ||
			f.RequestID != "" && m.RequestID != f.RequestID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (r *MovementRepo) Totals(ctx context.Context, unitID string) ([]repository.KeyTotal, error) {
	idx := make(map[entity.StockKey]int)
	var out []repository.KeyTotal
	for _, m := range r.s.data.movements {
		if unitID != "" && m.UnitID != unitID {
			continue
		}
		i, ok := idx[m.Key()]
		if !ok {
			i = len(out)
			idx[m.Key()] = i
			out = append(out, repository.KeyTotal{Key: m.Key(), Quantity: decimal.Zero})
		}
		out[i].Quantity = out[i].Quantity.Add(inventory.SignedQuantity(m.Type, m.Quantity))
		if m.ID > out[i].LastMovementID {
			out[i].LastMovementID = m.ID
		}
	}
	return out, nil
}
