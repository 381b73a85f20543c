package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/inventory"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

const opRecord = "registrar movimiento"

// LedgerUseCase registra movimientos y ajustes manuales de stock.
type LedgerUseCase struct {
	rt        ports.Runtime
	projector *Projector
	log       *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(rt ports.Runtime, projector *Projector) *LedgerUseCase {
	rt = rt.WithDefaults()
	return &LedgerUseCase{rt: rt, projector: projector, log: rt.Log.Component("ledger")}
}

// RecordMovement agrega un movimiento al libro (el servidor asigna id y fecha) y proyecta la clave.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, actor entity.Actor, in dto.RecordMovementRequest) (*dto.RecordMovementResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse, entity.RoleController) {
		return nil, domain.ErrForbidden
	}
	if actor.Role == entity.RoleController && in.UnitID != actor.UnitID {
		return nil, domain.ErrForbidden
	}
	typ := entity.MovementType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		return nil, domain.NewValidationError("type", "tipo de movimiento inválido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	if err := inventory.CheckQuantity("quantity", in.Quantity); err != nil {
		return nil, err
	}
	if err := uc.checkKey(ctx, in.ItemID, in.UnitID); err != nil {
		return nil, err
	}

	m := &entity.Movement{
		Type:      typ,
		ItemID:    in.ItemID,
		UnitID:    in.UnitID,
		UserID:    actor.UserID,
		Quantity:  in.Quantity,
		Notes:     in.Notes,
		Reference: in.Reference,
	}
	if err := uc.append(ctx, m); err != nil {
		return nil, err
	}
	st, err := uc.projector.Project(ctx, m.Key())
	if err != nil {
		return nil, err
	}
	return &dto.RecordMovementResponse{Movement: dto.FromMovement(m), Stock: dto.FromStock(st)}, nil
}

// ListMovements consulta el libro por (ítem, unidad) o por referencia (código de escaneo).
func (uc *LedgerUseCase) ListMovements(ctx context.Context, in dto.MovementListRequest) (*dto.MovementListResponse, error) {
	in.DefaultPage()
	var list []*entity.Movement
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		list, err = r.Movements.List(ctx, repository.MovementFilter{
			ItemID:    in.ItemID,
			UnitID:    in.UnitID,
			Reference: in.Reference,
			Limit:     in.Limit,
			Offset:    in.Offset,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.FromMovement(m))
	}
	return &dto.MovementListResponse{Items: items, Page: dto.PageResponse{Limit: in.Limit, Offset: in.Offset}}, nil
}

// OverrideStock edición manual de una fila. Mínimo y ubicación se editan directo;
// la cantidad se lleva al valor pedido con un movimiento compensatorio (entry u out).
func (uc *LedgerUseCase) OverrideStock(ctx context.Context, actor entity.Actor, stockID string, in dto.OverrideStockRequest) (*dto.OverrideStockResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	if in.MinimumQuantity != nil && in.MinimumQuantity.IsNegative() {
		return nil, domain.NewValidationError("minimum_quantity", "el mínimo no puede ser negativo")
	}
	if in.Quantity != nil && in.Quantity.IsNegative() {
		return nil, domain.NewValidationError("quantity", "la cantidad objetivo no puede ser negativa")
	}
	if in.Quantity != nil {
		if err := inventory.CheckQuantity("quantity", *in.Quantity); err != nil {
			return nil, err
		}
	}
	if in.MinimumQuantity != nil {
		if err := inventory.CheckQuantity("minimum_quantity", *in.MinimumQuantity); err != nil {
			return nil, err
		}
	}
	current, err := uc.projector.GetStockByID(ctx, stockID)
	if err != nil {
		return nil, err
	}
	key := entity.StockKey{ItemID: current.ItemID, UnitID: current.UnitID}
	out := &dto.OverrideStockResponse{}

	if in.Quantity != nil {
		if typ, diff, ok := inventory.Delta(current.Quantity, *in.Quantity); ok {
			m := &entity.Movement{
				Type:     typ,
				ItemID:   key.ItemID,
				UnitID:   key.UnitID,
				UserID:   actor.UserID,
				Quantity: diff,
				Notes:    strings.TrimSpace("ajuste manual " + in.Notes),
			}
			if err := uc.append(ctx, m); err != nil {
				return nil, err
			}
			if _, err := uc.projector.Project(ctx, key); err != nil {
				return nil, err
			}
			adj := dto.FromMovement(m)
			out.Adjustment = &adj
		}
	}

	if in.MinimumQuantity != nil || in.Location != nil {
		err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "editar stock", func(r ports.TxRepos) error {
			st, err := r.Stock.GetByID(ctx, stockID)
			if err != nil {
				return err
			}
			if in.MinimumQuantity != nil {
				st.MinimumQuantity = *in.MinimumQuantity
			}
			if in.Location != nil {
				st.Location = strings.TrimSpace(*in.Location)
			}
			st.UpdatedAt = uc.rt.Now()
			return r.Stock.Update(ctx, st)
		})
		if err != nil {
			return nil, err
		}
	}

	final, err := uc.projector.GetStock(ctx, key)
	if err != nil {
		return nil, err
	}
	out.Stock = *final
	uc.log.Info().Str("stock_id", stockID).Str("actor", actor.UserID).
		Bool("quantity_adjusted", out.Adjustment != nil).Msg("stock editado manualmente")
	return out, nil
}

func (uc *LedgerUseCase) append(ctx context.Context, m *entity.Movement) error {
	m.CreatedAt = uc.rt.Now()
	err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, opRecord, func(r ports.TxRepos) error {
		return r.Movements.Append(ctx, m)
	})
	if err != nil {
		uc.log.Error().Err(err).Str("type", string(m.Type)).Str("item_id", m.ItemID).Str("unit_id", m.UnitID).Msg("no se pudo registrar el movimiento")
		return err
	}
	uc.rt.Metrics.MovementRecorded(string(m.Type))
	uc.log.Info().Int64("movement_id", m.ID).Str("type", string(m.Type)).Str("item_id", m.ItemID).
		Str("unit_id", m.UnitID).Str("quantity", m.Quantity.String()).Str("actor", m.UserID).Msg("movimiento registrado")
	return nil
}

func (uc *LedgerUseCase) checkKey(ctx context.Context, itemID, unitID string) error {
	if _, err := uc.rt.Directory.GetItem(ctx, itemID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("item_id", "el ítem no existe")
		}
		return err
	}
	if _, err := uc.rt.Directory.GetUnit(ctx, unitID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("unit_id", "la unidad no existe")
		}
		return err
	}
	return nil
}

// WarehouseStock cantidad verificada del ítem en la bodega canónica.
func (uc *LedgerUseCase) WarehouseStock(ctx context.Context, itemID string) (decimal.Decimal, error) {
	st, err := uc.projector.Current(ctx, entity.StockKey{ItemID: itemID, UnitID: uc.rt.WarehouseUnitID})
	if err != nil {
		return decimal.Zero, err
	}
	return st.Quantity, nil
}
