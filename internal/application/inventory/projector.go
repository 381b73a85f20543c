// Package inventory casos de uso del libro de movimientos y de la proyección de stock.
package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/inventory"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

const opProject = "proyectar stock"

// Projector mantiene UnitStock igual a la suma con signo del libro.
// Es el único escritor de UnitStock.Quantity.
type Projector struct {
	rt  ports.Runtime
	log *logger.Logger
}

// NewProjector construye el proyector.
func NewProjector(rt ports.Runtime) *Projector {
	rt = rt.WithDefaults()
	return &Projector{rt: rt, log: rt.Log.Component("projector")}
}

// Project recalcula la fila de key en su propia transacción, después de escribir en el libro.
// Si falla tras el reintento el libro ya tiene el hecho: devuelve PersistenceError con
// ReconciliationNeeded y la próxima lectura repara la fila.
func (p *Projector) Project(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error) {
	st, _, err := p.sync(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, p.reconciliationNeeded(key, err)
	}
	return st, err
}

// GetStock devuelve la fila de (ítem, unidad) verificada contra el libro; si estaba desactualizada la repara.
func (p *Projector) GetStock(ctx context.Context, key entity.StockKey) (*dto.StockResponse, error) {
	st, err := p.read(ctx, key)
	if err != nil {
		return nil, err
	}
	out := dto.FromStock(st)
	return &out, nil
}

// Current fila verificada; cantidad 0 si la clave no tiene movimientos.
func (p *Projector) Current(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error) {
	st, err := p.read(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return &entity.UnitStock{ItemID: key.ItemID, UnitID: key.UnitID}, nil
	}
	return st, err
}

// GetStockByID igual que GetStock a partir del id de la fila.
func (p *Projector) GetStockByID(ctx context.Context, id string) (*dto.StockResponse, error) {
	var key entity.StockKey
	err := p.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		st, err := r.Stock.GetByID(ctx, id)
		if err != nil {
			return err
		}
		key = st.Key()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.GetStock(ctx, key)
}

// ListByUnit stock de una unidad. Compara cada fila con los totales del libro y repara las que difieran.
func (p *Projector) ListByUnit(ctx context.Context, unitID string) (*dto.StockListResponse, error) {
	if _, err := p.rt.Directory.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}
	var stale []entity.StockKey
	rows := make(map[entity.StockKey]*entity.UnitStock)
	var order []entity.StockKey
	err := p.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		stale, order = nil, nil
		clear(rows)
		list, err := r.Stock.ListByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		for _, st := range list {
			rows[st.Key()] = st
			order = append(order, st.Key())
		}
		totals, err := r.Movements.Totals(ctx, unitID)
		if err != nil {
			return err
		}
		for _, t := range totals {
			st, ok := rows[t.Key]
			if !ok {
				order = append(order, t.Key)
			}
			if !ok || !st.Quantity.Equal(t.Quantity) || st.LastMovementID != t.LastMovementID {
				stale = append(stale, t.Key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, key := range stale {
		st, err := p.read(ctx, key)
		if err != nil {
			return nil, err
		}
		rows[key] = st
	}
	out := &dto.StockListResponse{UnitID: unitID, Items: make([]dto.StockResponse, 0, len(order))}
	for _, key := range order {
		out.Items = append(out.Items, dto.FromStock(rows[key]))
	}
	return out, nil
}

// RebuildAll recalcula desde el libro todas las filas que tengan movimientos.
func (p *Projector) RebuildAll(ctx context.Context) (*dto.RebuildResponse, error) {
	var keys []entity.StockKey
	err := p.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		totals, err := r.Movements.Totals(ctx, "")
		if err != nil {
			return err
		}
		keys = keys[:0]
		for _, t := range totals {
			keys = append(keys, t.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res := &dto.RebuildResponse{}
	for _, key := range keys {
		_, changed, err := p.sync(ctx, key)
		if err != nil {
			return res, p.reconciliationNeeded(key, err)
		}
		res.Checked++
		if changed {
			res.Repaired++
			p.rt.Metrics.ProjectionRepaired()
		}
	}
	p.log.Info().Int("checked", res.Checked).Int("repaired", res.Repaired).Msg("proyección reconstruida")
	return res, nil
}

// read sincroniza en la ruta de lectura; una diferencia aquí es una reparación.
func (p *Projector) read(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error) {
	st, changed, err := p.sync(ctx, key)
	if err != nil {
		return nil, err
	}
	if changed {
		p.rt.Metrics.ProjectionRepaired()
		p.log.Warn().Str("item_id", key.ItemID).Str("unit_id", key.UnitID).
			Str("quantity", st.Quantity.String()).Int64("last_movement_id", st.LastMovementID).
			Msg("fila de stock reparada desde el libro")
	}
	return st, nil
}

func (p *Projector) sync(ctx context.Context, key entity.StockKey) (*entity.UnitStock, bool, error) {
	var (
		out     *entity.UnitStock
		changed bool
	)
	err := ports.RunInTx(ctx, p.rt.Tx, p.rt.Retry, opProject, func(r ports.TxRepos) error {
		var err error
		out, changed, err = projectKey(ctx, r, key, p.rt)
		return err
	})
	return out, changed, err
}

// projectKey bloquea la fila y después lee el libro, así el último proyector ve todo lo confirmado.
func projectKey(ctx context.Context, r ports.TxRepos, key entity.StockKey, rt ports.Runtime) (*entity.UnitStock, bool, error) {
	st, err := r.Stock.GetForUpdate(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	movs, err := r.Movements.ListByKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	qty, last := inventory.Project(movs)

	if st == nil {
		if len(movs) == 0 {
			return nil, false, domain.ErrNotFound
		}
		st = &entity.UnitStock{
			ID:              uuid.New().String(),
			ItemID:          key.ItemID,
			UnitID:          key.UnitID,
			Quantity:        qty,
			MinimumQuantity: inventory.DefaultMinimumQuantity,
			LastMovementID:  last,
			UpdatedAt:       rt.Now(),
		}
		if err := r.Stock.Create(ctx, st); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				// otro proyector creó la fila primero
				return nil, false, domain.ErrVersionConflict
			}
			return nil, false, err
		}
		return st, true, nil
	}

	if st.Quantity.Equal(qty) && st.LastMovementID == last {
		return st, false, nil
	}
	st.Quantity = qty
	st.LastMovementID = last
	st.UpdatedAt = rt.Now()
	if err := r.Stock.Update(ctx, st); err != nil {
		return nil, false, err
	}
	return st, true, nil
}

func (p *Projector) reconciliationNeeded(key entity.StockKey, err error) error {
	pe := &domain.PersistenceError{Op: opProject, Err: err, ReconciliationNeeded: true}
	var inner *domain.PersistenceError
	if errors.As(err, &inner) {
		pe.Err = inner.Err
	}
	p.rt.Metrics.ReconciliationNeeded(opProject)
	p.log.Error().Err(pe.Err).Str("item_id", key.ItemID).Str("unit_id", key.UnitID).
		Msg("el libro registró el movimiento pero la proyección no se actualizó")
	return pe
}
