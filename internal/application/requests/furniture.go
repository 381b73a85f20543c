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

const entityFurniture = "furniture_request"

// FurnitureUseCase pedidos de mueble al diseñador: compuerta de diseño y compuerta de almacén.
type FurnitureUseCase struct {
	rt  ports.Runtime
	log *logger.Logger
}

// NewFurnitureUseCase construye el caso de uso.
func NewFurnitureUseCase(rt ports.Runtime) *FurnitureUseCase {
	rt = rt.WithDefaults()
	return &FurnitureUseCase{rt: rt, log: rt.Log.Component("requests")}
}

// Create registra un pedido de mueble en pending_designer.
func (uc *FurnitureUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateFurnitureRequestRequest) (*dto.FurnitureRequestResponse, error) {
	if !actor.HasRole(entity.RoleRequester, entity.RoleController) {
		return nil, domain.ErrForbidden
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	if err := inventory.CheckQuantity("quantity", in.Quantity); err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, domain.NewValidationError("description", "la descripción es obligatoria")
	}
	item, err := uc.rt.Directory.GetItem(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("item_id", "el ítem no existe")
		}
		return nil, err
	}
	if !item.IsFurniture {
		return nil, domain.NewValidationError("item_id", "el ítem no es un mueble")
	}
	if in.DesignerUserID != "" {
		designer, err := uc.rt.Directory.GetUser(ctx, in.DesignerUserID)
		if err != nil || designer.Role != entity.RoleDesigner || !designer.Active {
			return nil, domain.NewValidationError("designer_user_id", "el diseñador no existe o no está activo")
		}
	}
	unitID, err := resolveUnit(ctx, uc.rt.Directory, actor, in.RequestingUnitID)
	if err != nil {
		return nil, err
	}

	now := uc.rt.Now()
	f := &entity.FurnitureRequest{
		ID:                uuid.New().String(),
		ItemID:            item.ID,
		Description:       desc,
		RequestingUnitID:  unitID,
		RequestedByUserID: actor.UserID,
		DesignerUserID:    in.DesignerUserID,
		Quantity:          in.Quantity,
		Status:            fulfillment.Furniture.Initial(),
		Observations:      strings.TrimSpace(in.Observations),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "crear pedido de mueble", func(r ports.TxRepos) error {
		return r.Furniture.Create(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	uc.rt.Metrics.Transition(entityFurniture, string(f.Status))
	uc.log.Info().Str("id", f.ID).Str("unit_id", unitID).Str("actor", actor.UserID).Msg("pedido de mueble creado")
	out := dto.FromFurnitureRequest(f)
	return &out, nil
}

// ApproveDesigner pending_designer → approved_designer. Si el pedido tiene diseñador asignado solo él aprueba.
func (uc *FurnitureUseCase) ApproveDesigner(ctx context.Context, actor entity.Actor, id string) (*dto.FurnitureRequestResponse, error) {
	if !actor.HasRole(entity.RoleDesigner) {
		return nil, domain.ErrForbidden
	}
	f, err := uc.transition(ctx, actor, id, fulfillment.EventApproveDesigner, func(f *entity.FurnitureRequest, now time.Time) error {
		if f.DesignerUserID != "" && f.DesignerUserID != actor.UserID && actor.Role != entity.RoleAdmin {
			return domain.ErrForbidden
		}
		if f.DesignerUserID == "" {
			f.DesignerUserID = actor.UserID
		}
		f.DesignerApprovedBy = actor.UserID
		f.DesignerApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := dto.FromFurnitureRequest(f)
	return &out, nil
}

// ApproveStorage approved_designer → approved_storage; a partir de aquí el mueble puede ir en un lote.
func (uc *FurnitureUseCase) ApproveStorage(ctx context.Context, actor entity.Actor, id string) (*dto.FurnitureRequestResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	f, err := uc.transition(ctx, actor, id, fulfillment.EventApproveStorage, func(f *entity.FurnitureRequest, now time.Time) error {
		f.StorageApprovedBy = actor.UserID
		f.StorageApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := dto.FromFurnitureRequest(f)
	return &out, nil
}

// Reject legal desde pending_designer (diseñador) o approved_designer (diseñador o almacén).
func (uc *FurnitureUseCase) Reject(ctx context.Context, actor entity.Actor, id, reason string) (*dto.FurnitureRequestResponse, error) {
	if !actor.HasRole(entity.RoleDesigner, entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	f, err := uc.transition(ctx, actor, id, fulfillment.EventReject, func(f *entity.FurnitureRequest, now time.Time) error {
		if f.Status == entity.StatusPendingDesigner && actor.Role == entity.RoleWarehouse {
			return domain.ErrForbidden
		}
		f.RejectedBy = actor.UserID
		f.RejectedAt = &now
		f.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := dto.FromFurnitureRequest(f)
	return &out, nil
}

// Transition entrada de PUT /furniture-requests/:id.
func (uc *FurnitureUseCase) Transition(ctx context.Context, actor entity.Actor, id string, in dto.TransitionRequestRequest) (*dto.FurnitureRequestResponse, error) {
	switch entity.Status(strings.TrimSpace(in.Status)) {
	case entity.StatusApprovedDesigner:
		return uc.ApproveDesigner(ctx, actor, id)
	case entity.StatusApprovedStorage:
		return uc.ApproveStorage(ctx, actor, id)
	case entity.StatusRejected:
		return uc.Reject(ctx, actor, id, in.Reason)
	case entity.StatusInTransit, entity.StatusCompleted:
		return nil, domain.NewValidationError("status", "esta transición la realiza el lote de entrega")
	default:
		return nil, domain.NewValidationError("status", "estado inválido")
	}
}

// Get devuelve un pedido de mueble.
func (uc *FurnitureUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*dto.FurnitureRequestResponse, error) {
	var f *entity.FurnitureRequest
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		f, err = r.Furniture.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if scopedToUnit(actor) && f.RequestingUnitID != actor.UnitID {
		return nil, domain.ErrForbidden
	}
	out := dto.FromFurnitureRequest(f)
	return &out, nil
}

// List lista pedidos de mueble. El diseñador ve por defecto los asignados a él.
func (uc *FurnitureUseCase) List(ctx context.Context, actor entity.Actor, in dto.FurnitureListRequest) (*dto.FurnitureListResponse, error) {
	in.DefaultPage()
	f := repository.FurnitureFilter{
		Status:         entity.Status(in.Status),
		UnitID:         in.UnitID,
		DesignerUserID: in.DesignerUserID,
		Limit:          in.Limit,
		Offset:         in.Offset,
	}
	if scopedToUnit(actor) {
		f.UnitID = actor.UnitID
	}
	var list []*entity.FurnitureRequest
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		list, err = r.Furniture.List(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.FurnitureRequestResponse, 0, len(list))
	for _, fr := range list {
		items = append(items, dto.FromFurnitureRequest(fr))
	}
	return &dto.FurnitureListResponse{Items: items, Page: dto.PageResponse{Limit: in.Limit, Offset: in.Offset}}, nil
}

func (uc *FurnitureUseCase) transition(ctx context.Context, actor entity.Actor, id string, ev fulfillment.Event, stamp func(f *entity.FurnitureRequest, now time.Time) error) (*entity.FurnitureRequest, error) {
	var (
		f    *entity.FurnitureRequest
		from entity.Status
	)
	err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "transición de pedido de mueble", func(r ports.TxRepos) error {
		var err error
		f, err = r.Furniture.Get(ctx, id)
		if err != nil {
			return err
		}
		from = f.Status
		next, err := fulfillment.Furniture.Next(id, f.Status, ev)
		if err != nil {
			return err
		}
		now := uc.rt.Now()
		if err := stamp(f, now); err != nil {
			return err
		}
		f.Status = next
		f.UpdatedAt = now
		return r.Furniture.Update(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	logTransition(uc.log, uc.rt.Metrics, entityFurniture, id, from, f.Status, actor.UserID)
	return f, nil
}
