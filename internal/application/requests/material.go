package requests

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/fulfillment"
	"github.com/jhoicas/Despacho-api/internal/domain/inventory"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

const entityRequest = "request"

// RequestUseCase pedidos de material.
type RequestUseCase struct {
	rt    ports.Runtime
	stock StockReader
	log   *logger.Logger
}

// NewRequestUseCase construye el caso de uso.
func NewRequestUseCase(rt ports.Runtime, stock StockReader) *RequestUseCase {
	rt = rt.WithDefaults()
	return &RequestUseCase{rt: rt, stock: stock, log: rt.Log.Component("requests")}
}

// Create registra un pedido en pending. El id se genera antes de confirmar al cliente.
func (uc *RequestUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateRequestRequest) (*dto.RequestResponse, error) {
	if !actor.HasRole(entity.RoleRequester, entity.RoleController) {
		return nil, domain.ErrForbidden
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	if err := inventory.CheckQuantity("quantity", in.Quantity); err != nil {
		return nil, err
	}
	urgency := strings.ToLower(strings.TrimSpace(in.Urgency))
	switch urgency {
	case "":
		urgency = entity.UrgencyMedium
	case entity.UrgencyLow, entity.UrgencyMedium, entity.UrgencyHigh, entity.UrgencyCritical:
	default:
		return nil, domain.NewValidationError("urgency", "urgencia inválida")
	}
	item, err := uc.rt.Directory.GetItem(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("item_id", "el ítem no existe")
		}
		return nil, err
	}
	if item.IsFurniture {
		return nil, domain.NewValidationError("item_id", "los muebles se solicitan al diseñador")
	}
	unitID, err := resolveUnit(ctx, uc.rt.Directory, actor, in.RequestingUnitID)
	if err != nil {
		return nil, err
	}

	now := uc.rt.Now()
	req := &entity.Request{
		ID:                uuid.New().String(),
		ItemID:            item.ID,
		RequestingUnitID:  unitID,
		RequestedByUserID: actor.UserID,
		Quantity:          in.Quantity,
		Urgency:           urgency,
		Status:            fulfillment.Material.Initial(),
		Observations:      strings.TrimSpace(in.Observations),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "crear pedido", func(r ports.TxRepos) error {
		return r.Requests.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	uc.rt.Metrics.Transition(entityRequest, string(req.Status))
	uc.log.Info().Str("id", req.ID).Str("unit_id", unitID).Str("item_id", item.ID).
		Str("actor", actor.UserID).Msg("pedido creado")
	out := dto.FromRequest(req)
	return &out, nil
}

// Approve pending → approved. Si la bodega no alcanza, aprueba igual y devuelve una advertencia.
func (uc *RequestUseCase) Approve(ctx context.Context, actor entity.Actor, id string) (*dto.RequestTransitionResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	current, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := fulfillment.Material.Next(id, current.Status, fulfillment.EventApprove); err != nil {
		return nil, err
	}
	key := entity.StockKey{ItemID: current.ItemID, UnitID: uc.rt.WarehouseUnitID}
	available, err := uc.stock.Current(ctx, key)
	if err != nil {
		return nil, err
	}

	req, err := uc.transition(ctx, actor, id, fulfillment.EventApprove, func(r *entity.Request, now time.Time) {
		r.ApprovedBy = actor.UserID
		r.ApprovedAt = &now
	})
	if err != nil {
		return nil, err
	}
	out := &dto.RequestTransitionResponse{Request: dto.FromRequest(req)}
	if available.Quantity.LessThan(req.Quantity) {
		w := domain.InsufficientStockWarning{
			ItemID:    req.ItemID,
			UnitID:    uc.rt.WarehouseUnitID,
			Available: available.Quantity,
			Requested: req.Quantity,
		}
		out.Warnings = append(out.Warnings, dto.FromStockWarning(w))
		uc.rt.Metrics.InsufficientStock()
		uc.log.Warn().Str("id", req.ID).Str("item_id", req.ItemID).Str("available", w.Available.String()).
			Str("requested", w.Requested.String()).Msg("pedido aprobado con stock insuficiente en bodega")
	}
	return out, nil
}

// Reject pending|approved → rejected. El motivo es obligatorio.
func (uc *RequestUseCase) Reject(ctx context.Context, actor entity.Actor, id, reason string) (*dto.RequestTransitionResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	req, err := uc.transition(ctx, actor, id, fulfillment.EventReject, func(r *entity.Request, now time.Time) {
		r.RejectedBy = actor.UserID
		r.RejectedAt = &now
		r.RejectionReason = reason
	})
	if err != nil {
		return nil, err
	}
	return &dto.RequestTransitionResponse{Request: dto.FromRequest(req)}, nil
}

// Transition entrada de PUT /requests/:id. Solo acepta las transiciones humanas.
func (uc *RequestUseCase) Transition(ctx context.Context, actor entity.Actor, id string, in dto.TransitionRequestRequest) (*dto.RequestTransitionResponse, error) {
	switch entity.Status(strings.TrimSpace(in.Status)) {
	case entity.StatusApproved:
		return uc.Approve(ctx, actor, id)
	case entity.StatusRejected:
		return uc.Reject(ctx, actor, id, in.Reason)
	case entity.StatusProcessing, entity.StatusAwaitingPickup, entity.StatusOutForDelivery, entity.StatusCompleted:
		return nil, domain.NewValidationError("status", "esta transición la realiza el lote de entrega")
	default:
		return nil, domain.NewValidationError("status", "estado inválido")
	}
}

// Get devuelve un pedido. Solicitantes y controladores solo ven los de su unidad.
func (uc *RequestUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*dto.RequestResponse, error) {
	req, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if scopedToUnit(actor) && req.RequestingUnitID != actor.UnitID {
		return nil, domain.ErrForbidden
	}
	out := dto.FromRequest(req)
	return &out, nil
}

// List lista pedidos con filtros y paginación.
func (uc *RequestUseCase) List(ctx context.Context, actor entity.Actor, in dto.RequestListRequest) (*dto.RequestListResponse, error) {
	in.DefaultPage()
	f := repository.RequestFilter{
		Status:  entity.Status(in.Status),
		UnitID:  in.UnitID,
		BatchID: in.BatchID,
		Limit:   in.Limit,
		Offset:  in.Offset,
	}
	if scopedToUnit(actor) {
		f.UnitID = actor.UnitID
	}
	var list []*entity.Request
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		list, err = r.Requests.List(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.RequestResponse, 0, len(list))
	for _, req := range list {
		items = append(items, dto.FromRequest(req))
	}
	return &dto.RequestListResponse{Items: items, Page: dto.PageResponse{Limit: in.Limit, Offset: in.Offset}}, nil
}

func (uc *RequestUseCase) load(ctx context.Context, id string) (*entity.Request, error) {
	var req *entity.Request
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		req, err = r.Requests.Get(ctx, id)
		return err
	})
	return req, err
}

// transition aplica ev con compare-and-set; un escritor concurrente provoca relectura y reintento.
func (uc *RequestUseCase) transition(ctx context.Context, actor entity.Actor, id string, ev fulfillment.Event, stamp func(r *entity.Request, now time.Time)) (*entity.Request, error) {
	var (
		req  *entity.Request
		from entity.Status
	)
	err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "transición de pedido", func(r ports.TxRepos) error {
		var err error
		req, err = r.Requests.Get(ctx, id)
		if err != nil {
			return err
		}
		from = req.Status
		next, err := fulfillment.Material.Next(id, req.Status, ev)
		if err != nil {
			return err
		}
		now := uc.rt.Now()
		req.Status = next
		req.UpdatedAt = now
		stamp(req, now)
		return r.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	logTransition(uc.log, uc.rt.Metrics, entityRequest, id, from, req.Status, actor.UserID)
	return req, nil
}
