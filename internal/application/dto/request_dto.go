package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequestRequest body para POST /api/requests.
type CreateRequestRequest struct {
	ItemID           string          `json:"item_id" validate:"required"`
	RequestingUnitID string          `json:"requesting_unit_id,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	Urgency          string          `json:"urgency,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Observations     string          `json:"observations,omitempty" validate:"max=1000"`
}

// TransitionRequestRequest body para PUT /api/requests/:id y PUT /api/furniture-requests/:id.
// Solo las transiciones humanas son aceptadas; las automáticas las hace el lote.
type TransitionRequestRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// RequestResponse pedido de material.
type RequestResponse struct {
	ID                string          `json:"id"`
	ItemID            string          `json:"item_id"`
	RequestingUnitID  string          `json:"requesting_unit_id"`
	RequestedByUserID string          `json:"requested_by_user_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	Urgency           string          `json:"urgency"`
	Status            string          `json:"status"`
	Observations      string          `json:"observations,omitempty"`
	BatchID           string          `json:"batch_id,omitempty"`
	ApprovedBy        string          `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	RejectedBy        string          `json:"rejected_by,omitempty"`
	RejectedAt        *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	ProcessingAt      *time.Time      `json:"processing_at,omitempty"`
	SeparatedBy       string          `json:"separated_by,omitempty"`
	SeparatedAt       *time.Time      `json:"separated_at,omitempty"`
	DispatchedAt      *time.Time      `json:"dispatched_at,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// WarningResponse advertencia que acompaña una respuesta exitosa.
type WarningResponse struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Available decimal.Decimal `json:"available"`
	Requested decimal.Decimal `json:"requested"`
}

// RequestTransitionResponse pedido resultante más advertencias (aprobación con stock insuficiente).
type RequestTransitionResponse struct {
	Request  RequestResponse   `json:"request"`
	Warnings []WarningResponse `json:"warnings,omitempty"`
}

// RequestListRequest filtros para GET /api/requests.
type RequestListRequest struct {
	Status  string `query:"status"`
	UnitID  string `query:"unit_id"`
	BatchID string `query:"batch_id"`
	PageRequest
}

// RequestListResponse listado paginado.
type RequestListResponse struct {
	Items []RequestResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreateFurnitureRequestRequest body para POST /api/furniture-requests.
type CreateFurnitureRequestRequest struct {
	ItemID           string          `json:"item_id" validate:"required"`
	Description      string          `json:"description" validate:"required,max=1000"`
	RequestingUnitID string          `json:"requesting_unit_id,omitempty"`
	DesignerUserID   string          `json:"designer_user_id,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	Observations     string          `json:"observations,omitempty" validate:"max=1000"`
}

// FurnitureRequestResponse pedido de mueble.
type FurnitureRequestResponse struct {
	ID                 string          `json:"id"`
	ItemID             string          `json:"item_id"`
	Description        string          `json:"description"`
	RequestingUnitID   string          `json:"requesting_unit_id"`
	RequestedByUserID  string          `json:"requested_by_user_id"`
	DesignerUserID     string          `json:"designer_user_id,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	Status             string          `json:"status"`
	Observations       string          `json:"observations,omitempty"`
	BatchID            string          `json:"batch_id,omitempty"`
	DesignerApprovedBy string          `json:"designer_approved_by,omitempty"`
	DesignerApprovedAt *time.Time      `json:"designer_approved_at,omitempty"`
	StorageApprovedBy  string          `json:"storage_approved_by,omitempty"`
	StorageApprovedAt  *time.Time      `json:"storage_approved_at,omitempty"`
	RejectedBy         string          `json:"rejected_by,omitempty"`
	RejectedAt         *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
	DispatchedAt       *time.Time      `json:"dispatched_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// FurnitureListRequest filtros para GET /api/furniture-requests.
type FurnitureListRequest struct {
	Status         string `query:"status"`
	UnitID         string `query:"unit_id"`
	DesignerUserID string `query:"designer_user_id"`
	PageRequest
}

// FurnitureListResponse listado paginado.
type FurnitureListResponse struct {
	Items []FurnitureRequestResponse `json:"items"`
	Page  PageResponse               `json:"page"`
}
