package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

var (
	_ repository.RequestRepository          = (*RequestRepo)(nil)
	_ repository.FurnitureRequestRepository = (*FurnitureRepo)(nil)
)

// RequestRepo pedidos de material en memoria.
type RequestRepo struct {
	s *Store
}

func (r *RequestRepo) Create(ctx context.Context, req *entity.Request) error {
	if _, ok := r.s.data.requests[req.ID]; ok {
		return domain.ErrDuplicate
	}
	req.RowVersion = 1
	cp := *req
	r.s.data.requests[req.ID] = &cp
	return nil
}

func (r *RequestRepo) Get(ctx context.Context, id string) (*entity.Request, error) {
	req, ok := r.s.data.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *RequestRepo) Update(ctx context.Context, req *entity.Request) error {
	if err := r.s.fail(OpRequestUpdate); err != nil {
		return err
	}
	cur, ok := r.s.data.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != req.RowVersion {
		return domain.ErrVersionConflict
	}
	req.RowVersion++
	cp := *req
	r.s.data.requests[req.ID] = &cp
	return nil
}

func (r *RequestRepo) List(ctx context.Context, f repository.RequestFilter) ([]*entity.Request, error) {
	var out []*entity.Request
	for _, req := range r.s.data.requests {
		if f.Status != "" && req.Status != f.Status ||
			f.UnitID != "" && req.RequestingUnitID != f.UnitID ||
			f.RequestedBy != "" && req.RequestedByUserID != f.RequestedBy ||
			f.BatchID != "" && req.BatchID != f.BatchID {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

// FurnitureRepo pedidos de mueble en memoria.
type FurnitureRepo struct {
	s *Store
}

func (r *FurnitureRepo) Create(ctx context.Context, f *entity.FurnitureRequest) error {
	if _, ok := r.s.data.furniture[f.ID]; ok {
		return domain.ErrDuplicate
	}
	f.RowVersion = 1
	cp := *f
	r.s.data.furniture[f.ID] = &cp
	return nil
}

func (r *FurnitureRepo) Get(ctx context.Context, id string) (*entity.FurnitureRequest, error) {
	f, ok := r.s.data.furniture[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *FurnitureRepo) Update(ctx context.Context, f *entity.FurnitureRequest) error {
	if err := r.s.fail(OpFurnitureUpdate); err != nil {
		return err
	}
	cur, ok := r.s.data.furniture[f.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != f.RowVersion {
		return domain.ErrVersionConflict
	}
	f.RowVersion++
	cp := *f
	r.s.data.furniture[f.ID] = &cp
	return nil
}

func (r *FurnitureRepo) List(ctx context.Context, f repository.FurnitureFilter) ([]*entity.FurnitureRequest, error) {
	var out []*entity.FurnitureRequest
	for _, fr := range r.s.data.furniture {
		if f.Status != "" && fr.Status != f.Status ||
			f.UnitID != "" && fr.RequestingUnitID != f.UnitID ||
			f.DesignerUserID != "" && fr.DesignerUserID != f.DesignerUserID ||
			f.BatchID != "" && fr.BatchID != f.BatchID {
			continue
		}
		cp := *fr
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}
