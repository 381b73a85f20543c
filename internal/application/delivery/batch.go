// Package delivery orquesta los lotes de entrega y el protocolo de confirmación.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/fulfillment"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

const (
	entityBatch     = "delivery_batch"
	entityRequest   = "request"
	entityFurniture = "furniture_request"
)

// Projector proyecta la clave después de escribir en el libro.
type Projector interface {
	Project(ctx context.Context, key entity.StockKey) (*entity.UnitStock, error)
}

// CodeValidator valida el código diario de un usuario (pkg/dailycode).
type CodeValidator interface {
	Validate(userID, code string, t time.Time) bool
}

// BatchUseCase lotes de entrega y confirmaciones.
type BatchUseCase struct {
	rt        ports.Runtime
	projector Projector
	codes     CodeValidator
	labels    ports.LabelGenerator
	rand      io.Reader
	log       *logger.Logger
	clog      *logger.Logger
}

// NewBatchUseCase construye el caso de uso. labels puede ser nil si no se imprimen etiquetas.
func NewBatchUseCase(rt ports.Runtime, projector Projector, codes CodeValidator, labels ports.LabelGenerator) *BatchUseCase {
	rt = rt.WithDefaults()
	return &BatchUseCase{
		rt:        rt,
		projector: projector,
		codes:     codes,
		labels:    labels,
		log:       rt.Log.Component("batches"),
		clog:      rt.Log.Component("confirmations"),
	}
}

// WithRandom fija la fuente de aleatoriedad del código de escaneo (tests).
func (uc *BatchUseCase) WithRandom(r io.Reader) *BatchUseCase {
	uc.rand = r
	return uc
}

// contents pedidos de un lote leídos dentro de la transacción.
type contents struct {
	materials []*entity.Request
	furniture []*entity.FurnitureRequest
}

type transition struct {
	entity   string
	id       string
	from, to entity.Status
}

// CreateBatch agrupa pedidos aprobados hacia una misma unidad. Todo o nada: si un pedido
// va a otra unidad falla con CrossUnitBatchError y ningún pedido cambia de estado.
func (uc *BatchUseCase) CreateBatch(ctx context.Context, actor entity.Actor, in dto.CreateBatchRequest) (*dto.BatchResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	reqIDs, err := cleanIDs("request_ids", in.RequestIDs)
	if err != nil {
		return nil, err
	}
	furnIDs, err := cleanIDs("furniture_request_ids", in.FurnitureRequestIDs)
	if err != nil {
		return nil, err
	}
	if len(reqIDs)+len(furnIDs) == 0 {
		return nil, domain.NewValidationError("request_ids", "seleccione al menos un pedido")
	}
	driverID := strings.TrimSpace(in.DriverUserID)
	if driverID == "" {
		return nil, domain.NewValidationError("driver_user_id", "seleccione un conductor")
	}
	driver, err := uc.rt.Directory.GetUser(ctx, driverID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if driver == nil || driver.Role != entity.RoleDriver || !driver.Active {
		return nil, domain.NewValidationError("driver_user_id", "el conductor no existe o no está activo")
	}
	target := strings.TrimSpace(in.TargetUnitID)
	if target != "" {
		if _, err := uc.rt.Directory.GetUnit(ctx, target); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError("target_unit_id", "la unidad destino no existe")
			}
			return nil, err
		}
	}

	var (
		batch      *entity.DeliveryBatch
		changes    []transition
		dispatched bool
	)
	err = ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "crear lote", func(r ports.TxRepos) error {
		changes = changes[:0]
		c := contents{}
		var items []entity.Fulfillable
		for _, id := range reqIDs {
			req, err := r.Requests.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("pedido %s: %w", id, err)
			}
			c.materials = append(c.materials, req)
			items = append(items, req)
		}
		for _, id := range furnIDs {
			f, err := r.Furniture.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("pedido de mueble %s: %w", id, err)
			}
			c.furniture = append(c.furniture, f)
			items = append(items, f)
		}

		unit := target
		if unit == "" {
			unit = items[0].TargetUnitID()
		}
		for _, it := range items {
			if it.TargetUnitID() != unit {
				return &domain.CrossUnitBatchError{RequestID: it.GetID(), RequestUnitID: it.TargetUnitID(), TargetUnitID: unit}
			}
		}
		for _, it := range items {
			m := fulfillment.For(it.Kind())
			if it.AssignedBatchID() != "" {
				return &domain.StateConflictError{Entity: m.Name(), ID: it.GetID(), Current: "en el lote " + it.AssignedBatchID(), Attempted: "nuevo lote"}
			}
			if _, err := m.Next(it.GetID(), it.CurrentStatus(), fulfillment.EventAttach); err != nil {
				return err
			}
		}

		now := uc.rt.Now()
		code, err := fulfillment.MintScanCode(now, uc.rand)
		if err != nil {
			return err
		}
		batch = &entity.DeliveryBatch{
			ID:                  uuid.New().String(),
			RequestIDs:          reqIDs,
			FurnitureRequestIDs: furnIDs,
			TargetUnitID:        unit,
			DriverUserID:        driverID,
			ScanCode:            code,
			Status:              entity.StatusPending,
			CreatedBy:           actor.UserID,
			Notes:               strings.TrimSpace(in.Notes),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := r.Batches.Create(ctx, batch); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				// colisión del código de escaneo: se repite la transacción con otro código
				return fmt.Errorf("%w: código de escaneo repetido", domain.ErrVersionConflict)
			}
			return err
		}

		for _, req := range c.materials {
			next, err := fulfillment.Material.Next(req.ID, req.Status, fulfillment.EventAttach)
			if err != nil {
				return err
			}
			changes = append(changes, transition{entityRequest, req.ID, req.Status, next})
			req.Status = next
			req.BatchID = batch.ID
			req.ProcessingAt = &now
			req.UpdatedAt = now
			if err := r.Requests.Update(ctx, req); err != nil {
				return err
			}
		}
		for _, f := range c.furniture {
			next, err := fulfillment.Furniture.Next(f.ID, f.Status, fulfillment.EventAttach)
			if err != nil {
				return err
			}
			f.Status = next
			f.BatchID = batch.ID
			f.UpdatedAt = now
			if err := r.Furniture.Update(ctx, f); err != nil {
				return err
			}
		}

		// un lote solo de muebles no espera separación
		moved, err := uc.tryDispatch(ctx, r, batch, c, now)
		if err != nil {
			return err
		}
		dispatched = moved != nil
		changes = append(changes, moved...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.rt.Metrics.Transition(entityBatch, string(entity.StatusPending))
	uc.logChanges(changes, actor.UserID)
	uc.log.Info().Str("batch_id", batch.ID).Str("scan_code", batch.ScanCode).Str("target_unit_id", batch.TargetUnitID).
		Str("driver", batch.DriverUserID).Int("requests", len(reqIDs)).Int("furniture", len(furnIDs)).
		Bool("dispatched", dispatched).Msg("lote creado")
	out := dto.FromBatch(batch)
	return &out, nil
}

// Separate separa un pedido del lote: emite el movimiento out contra la bodega canónica
// (uno solo por pedido) y lo deja en awaiting_pickup. Si con eso todos están listos el lote
// sale a in_transit y los pedidos a out_for_delivery en la misma transacción.
func (uc *BatchUseCase) Separate(ctx context.Context, actor entity.Actor, batchID, requestID string) (*dto.SeparateResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse) {
		return nil, domain.ErrForbidden
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, domain.NewValidationError("request_id", "indique el pedido a separar")
	}

	var (
		batch   *entity.DeliveryBatch
		req     *entity.Request
		mov     *entity.Movement
		changes []transition
		moved   []transition
	)
	err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "separar pedido", func(r ports.TxRepos) error {
		changes, moved = changes[:0], nil
		var err error
		batch, err = r.Batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if !contains(batch.RequestIDs, requestID) {
			return domain.NewValidationError("request_id", "el pedido no pertenece al lote")
		}
		if batch.Status != entity.StatusPending {
			return &domain.StateConflictError{Entity: "lote", ID: batch.ID, Current: string(batch.Status), Attempted: string(entity.StatusAwaitingPickup)}
		}
		req, err = r.Requests.Get(ctx, requestID)
		if err != nil {
			return err
		}
		next, err := fulfillment.Material.Next(req.ID, req.Status, fulfillment.EventSeparate)
		if err != nil {
			return err
		}
		exists, err := r.Movements.ExistsForRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if exists {
			return &domain.StateConflictError{Entity: fulfillment.Material.Name(), ID: req.ID, Current: "separado", Attempted: string(next)}
		}

		now := uc.rt.Now()
		mov = &entity.Movement{
			Type:      entity.MovementOut,
			ItemID:    req.ItemID,
			UnitID:    uc.rt.WarehouseUnitID,
			UserID:    actor.UserID,
			Quantity:  req.Quantity,
			Notes:     "separación lote " + batch.ScanCode,
			Reference: batch.ScanCode,
			RequestID: req.ID,
			CreatedAt: now,
		}
		if err := r.Movements.Append(ctx, mov); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return &domain.StateConflictError{Entity: fulfillment.Material.Name(), ID: req.ID, Current: "separado", Attempted: string(next)}
			}
			return err
		}

		changes = append(changes, transition{entityRequest, req.ID, req.Status, next})
		req.Status = next
		req.SeparatedBy = actor.UserID
		req.SeparatedAt = &now
		req.UpdatedAt = now
		if err := r.Requests.Update(ctx, req); err != nil {
			return err
		}

		c, err := loadContents(ctx, r, batch)
		if err != nil {
			return err
		}
		moved, err = uc.tryDispatch(ctx, r, batch, c, now)
		if err != nil {
			return err
		}
		for _, m := range c.materials {
			if m.ID == req.ID {
				req = m
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.rt.Metrics.MovementRecorded(string(mov.Type))
	uc.logChanges(append(changes, moved...), actor.UserID)
	uc.log.Info().Str("batch_id", batch.ID).Str("request_id", req.ID).Int64("movement_id", mov.ID).
		Bool("dispatched", moved != nil).Msg("pedido separado")

	if _, err := uc.projector.Project(ctx, mov.Key()); err != nil {
		return nil, err
	}
	return &dto.SeparateResponse{
		Batch:      dto.FromBatch(batch),
		Request:    dto.FromRequest(req),
		Movement:   dto.FromMovement(mov),
		Dispatched: moved != nil,
	}, nil
}

// Dispatch intenta el paso pending → in_transit. Todo o nada: si algún pedido no está
// separado el lote no sale y nada cambia.
func (uc *BatchUseCase) Dispatch(ctx context.Context, actor entity.Actor, batchID string) (*dto.BatchResponse, error) {
	if !actor.HasRole(entity.RoleWarehouse, entity.RoleDriver) {
		return nil, domain.ErrForbidden
	}
	var (
		batch *entity.DeliveryBatch
		moved []transition
	)
	err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "despachar lote", func(r ports.TxRepos) error {
		var err error
		batch, err = r.Batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if actor.Role == entity.RoleDriver && batch.DriverUserID != actor.UserID {
			return domain.ErrForbidden
		}
		if _, err := fulfillment.NextBatch(batch.ID, batch.Status, fulfillment.BatchDispatch); err != nil {
			return err
		}
		c, err := loadContents(ctx, r, batch)
		if err != nil {
			return err
		}
		moved, err = uc.tryDispatch(ctx, r, batch, c, uc.rt.Now())
		if err != nil {
			return err
		}
		if moved == nil {
			return &domain.StateConflictError{Entity: "lote", ID: batch.ID, Current: "pedidos sin separar", Attempted: string(entity.StatusInTransit)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.logChanges(moved, actor.UserID)
	out := dto.FromBatch(batch)
	return &out, nil
}

// tryDispatch hace el cambio a in_transit si el lote sigue en pending y todos sus pedidos
// están listos según la instantánea leída en esta transacción. Devuelve nil si no despachó.
func (uc *BatchUseCase) tryDispatch(ctx context.Context, r ports.TxRepos, b *entity.DeliveryBatch, c contents, now time.Time) ([]transition, error) {
	if b.Status != entity.StatusPending {
		return nil, nil
	}
	for _, m := range c.materials {
		if !fulfillment.Material.DispatchReady(m.Status) {
			return nil, nil
		}
	}
	for _, f := range c.furniture {
		if !fulfillment.Furniture.DispatchReady(f.Status) {
			return nil, nil
		}
	}

	next, err := fulfillment.NextBatch(b.ID, b.Status, fulfillment.BatchDispatch)
	if err != nil {
		return nil, err
	}
	moved := []transition{{entityBatch, b.ID, b.Status, next}}
	for _, m := range c.materials {
		to, err := fulfillment.Material.Next(m.ID, m.Status, fulfillment.EventDispatch)
		if err != nil {
			return nil, err
		}
		moved = append(moved, transition{entityRequest, m.ID, m.Status, to})
		m.Status = to
		m.DispatchedAt = &now
		m.UpdatedAt = now
		if err := r.Requests.Update(ctx, m); err != nil {
			return nil, err
		}
	}
	for _, f := range c.furniture {
		to, err := fulfillment.Furniture.Next(f.ID, f.Status, fulfillment.EventDispatch)
		if err != nil {
			return nil, err
		}
		moved = append(moved, transition{entityFurniture, f.ID, f.Status, to})
		f.Status = to
		f.DispatchedAt = &now
		f.UpdatedAt = now
		if err := r.Furniture.Update(ctx, f); err != nil {
			return nil, err
		}
	}
	b.Status = next
	b.DispatchedAt = &now
	b.UpdatedAt = now
	if err := r.Batches.Update(ctx, b); err != nil {
		return nil, err
	}
	return moved, nil
}

// Get detalle del lote con pedidos y confirmaciones.
func (uc *BatchUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*dto.BatchDetailResponse, error) {
	return uc.detail(ctx, actor, func(r ports.TxRepos) (*entity.DeliveryBatch, error) {
		return r.Batches.Get(ctx, id)
	})
}

// GetByScanCode busca por el código impreso; acepta la entrada cruda del lector.
func (uc *BatchUseCase) GetByScanCode(ctx context.Context, actor entity.Actor, scanCode string) (*dto.BatchDetailResponse, error) {
	code := fulfillment.NormalizeScanCode(scanCode)
	if code == "" {
		return nil, domain.NewValidationError("scan_code", "el código de escaneo es obligatorio")
	}
	return uc.detail(ctx, actor, func(r ports.TxRepos) (*entity.DeliveryBatch, error) {
		return r.Batches.GetByScanCode(ctx, code)
	})
}

func (uc *BatchUseCase) detail(ctx context.Context, actor entity.Actor, find func(r ports.TxRepos) (*entity.DeliveryBatch, error)) (*dto.BatchDetailResponse, error) {
	var (
		b     *entity.DeliveryBatch
		c     contents
		confs []*entity.DeliveryConfirmation
	)
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		if b, err = find(r); err != nil {
			return err
		}
		if c, err = loadContents(ctx, r, b); err != nil {
			return err
		}
		confs, err = r.Confirmations.ListByBatch(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !canSee(actor, b) {
		return nil, domain.ErrForbidden
	}
	out := &dto.BatchDetailResponse{
		Batch:             dto.FromBatch(b),
		Requests:          make([]dto.RequestResponse, 0, len(c.materials)),
		FurnitureRequests: make([]dto.FurnitureRequestResponse, 0, len(c.furniture)),
		Confirmations:     make([]dto.ConfirmationResponse, 0, len(confs)),
	}
	for _, m := range c.materials {
		out.Requests = append(out.Requests, dto.FromRequest(m))
	}
	for _, f := range c.furniture {
		out.FurnitureRequests = append(out.FurnitureRequests, dto.FromFurnitureRequest(f))
	}
	for _, cf := range confs {
		out.Confirmations = append(out.Confirmations, dto.FromConfirmation(cf))
	}
	return out, nil
}

// List lotes con filtros. El conductor ve los suyos; solicitantes y controladores los de su unidad.
func (uc *BatchUseCase) List(ctx context.Context, actor entity.Actor, in dto.BatchListRequest) (*dto.BatchListResponse, error) {
	in.DefaultPage()
	f := repository.BatchFilter{
		Status:       entity.Status(in.Status),
		DriverUserID: in.DriverUserID,
		TargetUnitID: in.TargetUnitID,
		Limit:        in.Limit,
		Offset:       in.Offset,
	}
	switch actor.Role {
	case entity.RoleDriver:
		f.DriverUserID = actor.UserID
	case entity.RoleRequester, entity.RoleController:
		f.TargetUnitID = actor.UnitID
	}
	var list []*entity.DeliveryBatch
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		var err error
		list, err = r.Batches.List(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		items = append(items, dto.FromBatch(b))
	}
	return &dto.BatchListResponse{Items: items, Page: dto.PageResponse{Limit: in.Limit, Offset: in.Offset}}, nil
}

// Label etiqueta PDF del lote con el código de escaneo en QR y código de barras.
func (uc *BatchUseCase) Label(ctx context.Context, actor entity.Actor, id string) ([]byte, error) {
	if uc.labels == nil {
		return nil, errors.New("generador de etiquetas no configurado")
	}
	d, err := uc.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	data := &dto.BatchLabelData{
		BatchID:        d.Batch.ID,
		ScanCode:       d.Batch.ScanCode,
		TargetUnitName: d.Batch.TargetUnitID,
		DriverName:     d.Batch.DriverUserID,
		CreatedAt:      d.Batch.CreatedAt,
	}
	if u, err := uc.rt.Directory.GetUnit(ctx, d.Batch.TargetUnitID); err == nil {
		data.TargetUnitName = u.Name
	}
	if u, err := uc.rt.Directory.GetUser(ctx, d.Batch.DriverUserID); err == nil {
		data.DriverName = u.Name
	}
	for _, r := range d.Requests {
		data.Lines = append(data.Lines, uc.labelLine(ctx, string(entity.KindMaterial), r.ItemID, r))
	}
	for _, f := range d.FurnitureRequests {
		line := dto.BatchLabelLine{Kind: string(entity.KindFurniture), ItemID: f.ItemID, ItemName: f.Description, Quantity: f.Quantity}
		if item, err := uc.rt.Directory.GetItem(ctx, f.ItemID); err == nil {
			line.ItemName = item.Name + " - " + f.Description
			line.Measure = item.UnitMeasure
		}
		data.Lines = append(data.Lines, line)
	}
	return uc.labels.GenerateBatchLabel(data)
}

func (uc *BatchUseCase) labelLine(ctx context.Context, kind, itemID string, r dto.RequestResponse) dto.BatchLabelLine {
	line := dto.BatchLabelLine{Kind: kind, ItemID: itemID, ItemName: itemID, Quantity: r.Quantity}
	if item, err := uc.rt.Directory.GetItem(ctx, itemID); err == nil {
		line.ItemName = item.Name
		line.Measure = item.UnitMeasure
	}
	return line
}

func (uc *BatchUseCase) logChanges(changes []transition, actor string) {
	for _, c := range changes {
		uc.rt.Metrics.Transition(c.entity, string(c.to))
		uc.log.Info().Str("entity", c.entity).Str("id", c.id).Str("from", string(c.from)).
			Str("to", string(c.to)).Str("actor", actor).Msg("transición")
	}
}

func loadContents(ctx context.Context, r ports.TxRepos, b *entity.DeliveryBatch) (contents, error) {
	var c contents
	for _, id := range b.RequestIDs {
		req, err := r.Requests.Get(ctx, id)
		if err != nil {
			return c, fmt.Errorf("pedido %s del lote %s: %w", id, b.ID, err)
		}
		c.materials = append(c.materials, req)
	}
	for _, id := range b.FurnitureRequestIDs {
		f, err := r.Furniture.Get(ctx, id)
		if err != nil {
			return c, fmt.Errorf("pedido de mueble %s del lote %s: %w", id, b.ID, err)
		}
		c.furniture = append(c.furniture, f)
	}
	return c, nil
}

// canSee solicitantes y controladores solo ven lotes hacia su unidad; el conductor solo los suyos.
func canSee(actor entity.Actor, b *entity.DeliveryBatch) bool {
	switch actor.Role {
	case entity.RoleRequester, entity.RoleController:
		return b.TargetUnitID == actor.UnitID
	case entity.RoleDriver:
		return b.DriverUserID == actor.UserID
	}
	return true
}

func cleanIDs(field string, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, domain.NewValidationError(field, "identificador vacío")
		}
		if seen[id] {
			return nil, domain.NewValidationError(field, "pedido repetido: "+id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
