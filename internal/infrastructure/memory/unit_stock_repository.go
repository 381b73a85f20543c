package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var _ repository.UnitStockRepository = (*UnitStockRepo)(nil)

// UnitStockRepo proyección de stock en memoria.
type UnitStockRepo struct {
	s *Store
}

func (r *UnitStockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error) {
	for _, st := range r.s.data.stock {
		if st.Key() == key {
			cp := *st
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UnitStockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error) {
	return r.Get(ctx, key)
}

func (r *UnitStockRepo) GetByID(ctx context.Context, id string) (*entity.UnitStock, error) {
	st, ok := r.s.data.stock[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *UnitStockRepo) Create(ctx context.Context, st *entity.UnitStock) error {
	if err := r.s.fail(OpStockWrite); err != nil {
		return err
	}
	if _, err := r.Get(ctx, st.Key()); err == nil {
		return domain.ErrDuplicate
	}
	st.RowVersion = 1
	cp := *st
	r.s.data.stock[st.ID] = &cp
	return nil
}

func (r *UnitStockRepo) Update(ctx context.Context, st *entity.UnitStock) error {
	if err := r.s.fail(OpStockWrite); err != nil {
		return err
	}
	cur, ok := r.s.data.stock[st.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != st.RowVersion {
		return domain.ErrVersionConflict
	}
	st.RowVersion++
	cp := *st
	r.s.data.stock[st.ID] = &cp
	return nil
}

func (r *UnitStockRepo) ListByUnit(ctx context.Context, unitID string) ([]*entity.UnitStock, error) {
	var out []*entity.UnitStock
	for _, st := range r.s.data.stock {
		if st.UnitID == unitID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}
