package delivery

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
)

// ConfirmDelivery el conductor registra la entrega presentando el código diario del receptor,
// que debe pertenecer a la unidad destino. in_transit → delivery_confirmed.
func (uc *BatchUseCase) ConfirmDelivery(ctx context.Context, actor entity.Actor, in dto.ConfirmRequest) (*dto.ConfirmResponse, error) {
	if !actor.HasRole(entity.RoleDriver) {
		return nil, domain.ErrForbidden
	}
	receiverID := strings.TrimSpace(in.ReceiverUserID)
	if receiverID == "" {
		return nil, domain.NewValidationError("receiver_user_id", "indique quién recibe")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, domain.NewValidationError("code", "el código es obligatorio")
	}
	receiver, err := uc.rt.Directory.GetUser(ctx, receiverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("receiver_user_id", "el receptor no existe")
		}
		return nil, err
	}
	if !receiver.Active {
		return nil, domain.NewValidationError("receiver_user_id", "el receptor no está activo")
	}
	batchID, err := uc.resolveBatchID(ctx, in.BatchID, in.ScanCode)
	if err != nil {
		return nil, err
	}

	var (
		b    *entity.DeliveryBatch
		conf *entity.DeliveryConfirmation
		from entity.Status
	)
	err = ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "confirmar entrega", func(r ports.TxRepos) error {
		var err error
		if b, err = r.Batches.GetForUpdate(ctx, batchID); err != nil {
			return err
		}
		if actor.Role != entity.RoleAdmin && b.DriverUserID != actor.UserID {
			return domain.ErrForbidden
		}
		next, err := fulfillment.NextBatch(b.ID, b.Status, fulfillment.BatchConfirmDelivery)
		if err != nil {
			return err
		}
		if receiver.UnitID != b.TargetUnitID {
			return domain.NewValidationError("receiver_user_id", "el receptor no pertenece a la unidad destino")
		}
		now := uc.rt.Now()
		if !uc.codes.Validate(receiver.ID, code, now) {
			return domain.ErrInvalidCode
		}
		conf = &entity.DeliveryConfirmation{
			ID:                uuid.New().String(),
			BatchID:           b.ID,
			Type:              entity.ConfirmationDelivery,
			ConfirmedByUserID: actor.UserID,
			AttestedByUserID:  receiver.ID,
			PhotoRef:          strings.TrimSpace(in.PhotoRef),
			Notes:             strings.TrimSpace(in.Notes),
			CreatedAt:         now,
		}
		if err := r.Confirmations.Create(ctx, conf); err != nil {
			return duplicateConfirmation(err, b, conf.Type)
		}
		from = b.Status
		b.Status = next
		b.DeliveryConfirmedAt = &now
		b.UpdatedAt = now
		return r.Batches.Update(ctx, b)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCode) {
			uc.clog.Warn().Str("batch_id", batchID).Str("receiver", receiverID).Str("driver", actor.UserID).Msg("código de receptor inválido")
		}
		return nil, err
	}
	uc.logChanges([]transition{{entityBatch, b.ID, from, b.Status}}, actor.UserID)
	uc.logConfirmation(conf)
	return &dto.ConfirmResponse{Confirmation: dto.FromConfirmation(conf), Batch: dto.FromBatch(b)}, nil
}

// DeferConfirmation el conductor no encontró a quién entregar con código: in_transit → pending_confirmation.
func (uc *BatchUseCase) DeferConfirmation(ctx context.Context, actor entity.Actor, batchID, notes string) (*dto.BatchResponse, error) {
	if !actor.HasRole(entity.RoleDriver) {
		return nil, domain.ErrForbidden
	}
	var (
		b    *entity.DeliveryBatch
		from entity.Status
	)
	err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, "aplazar confirmación", func(r ports.TxRepos) error {
		var err error
		if b, err = r.Batches.GetForUpdate(ctx, batchID); err != nil {
			return err
		}
		if actor.Role != entity.RoleAdmin && b.DriverUserID != actor.UserID {
			return domain.ErrForbidden
		}
		next, err := fulfillment.NextBatch(b.ID, b.Status, fulfillment.BatchDefer)
		if err != nil {
			return err
		}
		now := uc.rt.Now()
		from = b.Status
		b.Status = next
		b.PendingConfirmationAt = &now
		b.UpdatedAt = now
		if n := strings.TrimSpace(notes); n != "" {
			if b.Notes != "" {
				b.Notes += "\n"
			}
			b.Notes += n
		}
		return r.Batches.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	uc.logChanges([]transition{{entityBatch, b.ID, from, b.Status}}, actor.UserID)
	out := dto.FromBatch(b)
	return &out, nil
}

// ConfirmReceipt el controlador de la unidad destino escanea el código del lote y lo completa.
func (uc *BatchUseCase) ConfirmReceipt(ctx context.Context, actor entity.Actor, in dto.ConfirmRequest) (*dto.ConfirmResponse, error) {
	if !actor.HasRole(entity.RoleController) {
		return nil, domain.ErrForbidden
	}
	code := fulfillment.NormalizeScanCode(in.ScanCode)
	if code == "" {
		return nil, domain.NewValidationError("scan_code", "el código de escaneo es obligatorio")
	}
	res, err := uc.complete(ctx, actor, "confirmar recepción", func(r ports.TxRepos) (*entity.DeliveryBatch, error) {
		b, err := r.Batches.GetByScanCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if actor.Role != entity.RoleAdmin && actor.UnitID != b.TargetUnitID {
			return nil, domain.ErrForbidden
		}
		return r.Batches.GetForUpdate(ctx, b.ID)
	}, entity.ConfirmationReceipt, "", in)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ConfirmByRequester un miembro de la unidad destino confirma con su propio código diario.
// Sobre un lote ya completado solo suma la confirmación (una por usuario).
func (uc *BatchUseCase) ConfirmByRequester(ctx context.Context, actor entity.Actor, in dto.ConfirmRequest) (*dto.ConfirmResponse, error) {
	if !actor.HasRole(entity.RoleRequester, entity.RoleController) {
		return nil, domain.ErrForbidden
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, domain.NewValidationError("code", "el código es obligatorio")
	}
	u, err := uc.rt.Directory.GetUser(ctx, actor.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if u == nil || !u.Active {
		return nil, domain.ErrForbidden
	}
	batchID, err := uc.resolveBatchID(ctx, in.BatchID, in.ScanCode)
	if err != nil {
		return nil, err
	}
	if !uc.codes.Validate(actor.UserID, code, uc.rt.Now()) {
		uc.clog.Warn().Str("batch_id", batchID).Str("user", actor.UserID).Msg("código diario inválido")
		return nil, domain.ErrInvalidCode
	}
	return uc.complete(ctx, actor, "confirmar por solicitante", func(r ports.TxRepos) (*entity.DeliveryBatch, error) {
		b, err := r.Batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if actor.Role != entity.RoleAdmin && actor.UnitID != b.TargetUnitID {
			return nil, domain.ErrForbidden
		}
		return b, nil
	}, entity.ConfirmationRequester, actor.UserID, in)
}

// complete registra una confirmación de recepción y lleva el lote y sus pedidos a completed.
// Si el lote ya está completado y la confirmación es de solicitante, solo la agrega.
func (uc *BatchUseCase) complete(
	ctx context.Context,
	actor entity.Actor,
	op string,
	lock func(r ports.TxRepos) (*entity.DeliveryBatch, error),
	typ entity.ConfirmationType,
	attested string,
	in dto.ConfirmRequest,
) (*dto.ConfirmResponse, error) {
	var (
		b       *entity.DeliveryBatch
		conf    *entity.DeliveryConfirmation
		changes []transition
		movs    []*entity.Movement
	)
	err := ports.RunInTx(ctx, uc.rt.Tx, uc.rt.Retry, op, func(r ports.TxRepos) error {
		changes, movs = changes[:0], movs[:0]
		var err error
		if b, err = lock(r); err != nil {
			return err
		}
		now := uc.rt.Now()
		conf = &entity.DeliveryConfirmation{
			ID:                uuid.New().String(),
			BatchID:           b.ID,
			Type:              typ,
			ConfirmedByUserID: actor.UserID,
			AttestedByUserID:  attested,
			PhotoRef:          strings.TrimSpace(in.PhotoRef),
			Notes:             strings.TrimSpace(in.Notes),
			CreatedAt:         now,
		}
		if b.Status == entity.StatusCompleted && typ == entity.ConfirmationRequester {
			if err := r.Confirmations.Create(ctx, conf); err != nil {
				return duplicateConfirmation(err, b, typ)
			}
			return nil
		}

		next, err := fulfillment.NextBatch(b.ID, b.Status, fulfillment.BatchReceive)
		if err != nil {
			return err
		}
		existing, err := r.Confirmations.ListByBatch(ctx, b.ID)
		if err != nil {
			return err
		}
		if !fulfillment.CanComplete(append(existing, conf)) {
			return &domain.StateConflictError{Entity: "lote", ID: b.ID, Current: string(b.Status), Attempted: string(next)}
		}
		if err := r.Confirmations.Create(ctx, conf); err != nil {
			return duplicateConfirmation(err, b, typ)
		}

		c, err := loadContents(ctx, r, b)
		if err != nil {
			return err
		}
		for _, m := range c.materials {
			to, err := fulfillment.Material.Next(m.ID, m.Status, fulfillment.EventComplete)
			if err != nil {
				return err
			}
			changes = append(changes, transition{entityRequest, m.ID, m.Status, to})
			m.Status = to
			m.CompletedAt = &now
			m.UpdatedAt = now
			if err := r.Requests.Update(ctx, m); err != nil {
				return err
			}
		}
		for _, f := range c.furniture {
			to, err := fulfillment.Furniture.Next(f.ID, f.Status, fulfillment.EventComplete)
			if err != nil {
				return err
			}
			changes = append(changes, transition{entityFurniture, f.ID, f.Status, to})
			f.Status = to
			f.CompletedAt = &now
			f.UpdatedAt = now
			if err := r.Furniture.Update(ctx, f); err != nil {
				return err
			}
		}
		if movs, err = uc.ensureOutMovements(ctx, r, b, c.materials, actor, now); err != nil {
			return err
		}

		changes = append(changes, transition{entityBatch, b.ID, b.Status, next})
		b.Status = next
		b.CompletedAt = &now
		b.UpdatedAt = now
		return r.Batches.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	uc.logChanges(changes, actor.UserID)
	uc.logConfirmation(conf)
	for _, m := range movs {
		uc.rt.Metrics.MovementRecorded(string(m.Type))
		uc.log.Warn().Str("batch_id", b.ID).Str("request_id", m.RequestID).Int64("movement_id", m.ID).
			Msg("salida registrada al completar: el pedido no tenía movimiento de separación")
	}
	for _, key := range uniqueKeys(movs) {
		if _, err := uc.projector.Project(ctx, key); err != nil {
			return nil, err
		}
	}
	return &dto.ConfirmResponse{Confirmation: dto.FromConfirmation(conf), Batch: dto.FromBatch(b)}, nil
}

// ensureOutMovements garantiza un movimiento out por pedido de material del lote.
// Los pedidos separados ya lo tienen; no se duplica.
func (uc *BatchUseCase) ensureOutMovements(ctx context.Context, r ports.TxRepos, b *entity.DeliveryBatch, reqs []*entity.Request, actor entity.Actor, now time.Time) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, req := range reqs {
		exists, err := r.Movements.ExistsForRequest(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		m := &entity.Movement{
			Type:      entity.MovementOut,
			ItemID:    req.ItemID,
			UnitID:    uc.rt.WarehouseUnitID,
			UserID:    actor.UserID,
			Quantity:  req.Quantity,
			Notes:     "salida por recepción del lote " + b.ScanCode,
			Reference: b.ScanCode,
			RequestID: req.ID,
			CreatedAt: now,
		}
		if err := r.Movements.Append(ctx, m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Confirm punto único de POST /api/confirmations según el tipo.
func (uc *BatchUseCase) Confirm(ctx context.Context, actor entity.Actor, in dto.ConfirmRequest) (*dto.ConfirmResponse, error) {
	switch entity.ConfirmationType(in.Type) {
	case entity.ConfirmationDelivery:
		return uc.ConfirmDelivery(ctx, actor, in)
	case entity.ConfirmationReceipt:
		return uc.ConfirmReceipt(ctx, actor, in)
	case entity.ConfirmationRequester:
		return uc.ConfirmByRequester(ctx, actor, in)
	}
	return nil, domain.NewValidationError("type", "tipo de confirmación desconocido: "+in.Type)
}

// Transition punto único de PUT /api/batches/:id según la acción.
func (uc *BatchUseCase) Transition(ctx context.Context, actor entity.Actor, batchID string, in dto.TransitionBatchRequest) (*dto.BatchTransitionResponse, error) {
	out := &dto.BatchTransitionResponse{Action: in.Action}
	switch in.Action {
	case dto.BatchActionSeparate:
		res, err := uc.Separate(ctx, actor, batchID, in.RequestID)
		if err != nil {
			return nil, err
		}
		out.Batch, out.Separation = res.Batch, res
	case dto.BatchActionDispatch:
		res, err := uc.Dispatch(ctx, actor, batchID)
		if err != nil {
			return nil, err
		}
		out.Batch = *res
	case dto.BatchActionConfirmDelivery:
		res, err := uc.ConfirmDelivery(ctx, actor, dto.ConfirmRequest{
			Type:           string(entity.ConfirmationDelivery),
			BatchID:        batchID,
			ReceiverUserID: in.ReceiverUserID,
			Code:           in.Code,
			PhotoRef:       in.PhotoRef,
			Notes:          in.Notes,
		})
		if err != nil {
			return nil, err
		}
		out.Batch, out.Confirmation = res.Batch, &res.Confirmation
	case dto.BatchActionDeferConfirmation:
		res, err := uc.DeferConfirmation(ctx, actor, batchID, in.Notes)
		if err != nil {
			return nil, err
		}
		out.Batch = *res
	default:
		return nil, domain.NewValidationError("action", "acción desconocida: "+in.Action)
	}
	return out, nil
}

// ListConfirmations confirmaciones del lote en orden de registro.
func (uc *BatchUseCase) ListConfirmations(ctx context.Context, actor entity.Actor, batchID string) ([]dto.ConfirmationResponse, error) {
	d, err := uc.Get(ctx, actor, batchID)
	if err != nil {
		return nil, err
	}
	return d.Confirmations, nil
}

func (uc *BatchUseCase) resolveBatchID(ctx context.Context, batchID, scanCode string) (string, error) {
	if id := strings.TrimSpace(batchID); id != "" {
		return id, nil
	}
	code := fulfillment.NormalizeScanCode(scanCode)
	if code == "" {
		return "", domain.NewValidationError("batch_id", "indique el lote o su código de escaneo")
	}
	var id string
	err := uc.rt.Tx.Run(ctx, func(r ports.TxRepos) error {
		b, err := r.Batches.GetByScanCode(ctx, code)
		if err != nil {
			return err
		}
		id = b.ID
		return nil
	})
	return id, err
}

func (uc *BatchUseCase) logConfirmation(c *entity.DeliveryConfirmation) {
	uc.clog.Info().Str("batch_id", c.BatchID).Str("type", string(c.Type)).Str("confirmed_by", c.ConfirmedByUserID).
		Str("attested_by", c.AttestedByUserID).Msg("confirmación registrada")
}

func duplicateConfirmation(err error, b *entity.DeliveryBatch, typ entity.ConfirmationType) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return &domain.StateConflictError{Entity: "lote", ID: b.ID, Current: string(b.Status), Attempted: "confirmación " + string(typ) + " repetida"}
	}
	return err
}

func uniqueKeys(movs []*entity.Movement) []entity.StockKey {
	seen := make(map[entity.StockKey]bool)
	var keys []entity.StockKey
	for _, m := range movs {
		if !seen[m.Key()] {
			seen[m.Key()] = true
			keys = append(keys, m.Key())
		}
	}
	return keys
}
