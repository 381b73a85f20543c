package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados propios del pedido de mueble (además de StatusRejected y StatusCompleted).
const (
	StatusPendingDesigner  Status = "pending_designer"
	StatusApprovedDesigner Status = "approved_designer"
	StatusApprovedStorage  Status = "approved_storage"
	StatusInTransit        Status = "in_transit"
)

// FurnitureRequest pedido de mueble dirigido al diseñador. Tiene dos aprobaciones humanas
// (diseñador y almacén) antes de entrar al mismo circuito de entrega que Request.
type FurnitureRequest struct {
	ID                string
	ItemID            string
	Description       string
	RequestingUnitID  string
	RequestedByUserID string
	DesignerUserID    string
	Quantity          decimal.Decimal
	Status            Status
	Observations      string
	BatchID           string

	DesignerApprovedBy string
	DesignerApprovedAt *time.Time
	StorageApprovedBy  string
	StorageApprovedAt  *time.Time
	RejectedBy         string
	RejectedAt         *time.Time
	RejectionReason    string
	DispatchedAt       *time.Time
	CompletedAt        *time.Time

	RowVersion int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (f *FurnitureRequest) GetID() string         { return f.ID }
func (f *FurnitureRequest) GetRowVersion() int64  { return f.RowVersion }
func (f *FurnitureRequest) SetRowVersion(v int64) { f.RowVersion = v }
func (f *FurnitureRequest) Kind() RequestKind     { return KindFurniture }
func (f *FurnitureRequest) TargetUnitID() string  { return f.RequestingUnitID }
func (f *FurnitureRequest) CurrentStatus() Status { return f.Status }
func (f *FurnitureRequest) AssignedBatchID() string {
	return f.BatchID
}
