package dto

import (
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/jhoicas/Despacho-api/internal/domain/inventory"
)

// FromMovement mapea un movimiento del libro.
func FromMovement(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:        m.ID,
		Type:      string(m.Type),
		ItemID:    m.ItemID,
		UnitID:    m.UnitID,
		UserID:    m.UserID,
		Quantity:  m.Quantity,
		Notes:     m.Notes,
		Reference: m.Reference,
		RequestID: m.RequestID,
		CreatedAt: m.CreatedAt,
	}
}

// FromStock mapea una fila de stock con su estado de salud.
func FromStock(s *entity.UnitStock) StockResponse {
	return StockResponse{
		ID:              s.ID,
		ItemID:          s.ItemID,
		UnitID:          s.UnitID,
		Quantity:        s.Quantity,
		MinimumQuantity: s.MinimumQuantity,
		Location:        s.Location,
		Health:          inventory.Health(s),
		LastMovementID:  s.LastMovementID,
		UpdatedAt:       s.UpdatedAt,
	}
}

func FromRequest(r *entity.Request) RequestResponse {
	return RequestResponse{
		ID:                r.ID,
		ItemID:            r.ItemID,
		RequestingUnitID:  r.RequestingUnitID,
		RequestedByUserID: r.RequestedByUserID,
		Quantity:          r.Quantity,
		Urgency:           r.Urgency,
		Status:            string(r.Status),
		Observations:      r.Observations,
		BatchID:           r.BatchID,
		ApprovedBy:        r.ApprovedBy,
		ApprovedAt:        r.ApprovedAt,
		RejectedBy:        r.RejectedBy,
		RejectedAt:        r.RejectedAt,
		RejectionReason:   r.RejectionReason,
		ProcessingAt:      r.ProcessingAt,
		SeparatedBy:       r.SeparatedBy,
		SeparatedAt:       r.SeparatedAt,
		DispatchedAt:      r.DispatchedAt,
		CompletedAt:       r.CompletedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func FromFurnitureRequest(f *entity.FurnitureRequest) FurnitureRequestResponse {
	return FurnitureRequestResponse{
		ID:                 f.ID,
		ItemID:             f.ItemID,
		Description:        f.Description,
		RequestingUnitID:   f.RequestingUnitID,
		RequestedByUserID:  f.RequestedByUserID,
		DesignerUserID:     f.DesignerUserID,
		Quantity:           f.Quantity,
		Status:             string(f.Status),
		Observations:       f.Observations,
		BatchID:            f.BatchID,
		DesignerApprovedBy: f.DesignerApprovedBy,
		DesignerApprovedAt: f.DesignerApprovedAt,
		StorageApprovedBy:  f.StorageApprovedBy,
		StorageApprovedAt:  f.StorageApprovedAt,
		RejectedBy:         f.RejectedBy,
		RejectedAt:         f.RejectedAt,
		RejectionReason:    f.RejectionReason,
		DispatchedAt:       f.DispatchedAt,
		CompletedAt:        f.CompletedAt,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

func FromBatch(b *entity.DeliveryBatch) BatchResponse {
	reqIDs := b.RequestIDs
	if reqIDs == nil {
		reqIDs = []string{}
	}
	furnIDs := b.FurnitureRequestIDs
	if furnIDs == nil {
		furnIDs = []string{}
	}
	return BatchResponse{
		ID:                    b.ID,
		RequestIDs:            reqIDs,
		FurnitureRequestIDs:   furnIDs,
		TargetUnitID:          b.TargetUnitID,
		DriverUserID:          b.DriverUserID,
		ScanCode:              b.ScanCode,
		Status:                string(b.Status),
		CreatedBy:             b.CreatedBy,
		Notes:                 b.Notes,
		CreatedAt:             b.CreatedAt,
		DispatchedAt:          b.DispatchedAt,
		DeliveryConfirmedAt:   b.DeliveryConfirmedAt,
		PendingConfirmationAt: b.PendingConfirmationAt,
		CompletedAt:           b.CompletedAt,
		UpdatedAt:             b.UpdatedAt,
	}
}

func FromConfirmation(c *entity.DeliveryConfirmation) ConfirmationResponse {
	return ConfirmationResponse{
		ID:                c.ID,
		BatchID:           c.BatchID,
		Type:              string(c.Type),
		ConfirmedByUserID: c.ConfirmedByUserID,
		AttestedByUserID:  c.AttestedByUserID,
		PhotoRef:          c.PhotoRef,
		Notes:             c.Notes,
		CreatedAt:         c.CreatedAt,
	}
}

// FromStockWarning advertencia de aprobación con stock insuficiente.
func FromStockWarning(w domain.InsufficientStockWarning) WarningResponse {
	return WarningResponse{
		Code:      "INSUFFICIENT_STOCK",
		Message:   w.Message(),
		Available: w.Available,
		Requested: w.Requested,
	}
}
