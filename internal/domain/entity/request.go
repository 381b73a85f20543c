package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status estado de un pedido (material o mueble) o de un lote.
type Status string

// Estados del pedido de material.
const (
	StatusPending        Status = "pending"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusProcessing     Status = "processing"
	StatusAwaitingPickup Status = "awaiting_pickup"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusCompleted      Status = "completed"
)

// Urgencias aceptadas.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Request pedido de material de una unidad. Solo lo mutan las transiciones de la máquina de estados.
type Request struct {
	ID                string
	ItemID            string
	RequestingUnitID  string
	RequestedByUserID string
	Quantity          decimal.Decimal
	Urgency           string
	Status            Status
	Observations      string
	BatchID           string

	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string
	ProcessingAt    *time.Time
	SeparatedBy     string
	SeparatedAt     *time.Time
	DispatchedAt    *time.Time
	CompletedAt     *time.Time

	RowVersion int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *Request) GetID() string         { return r.ID }
func (r *Request) GetRowVersion() int64  { return r.RowVersion }
func (r *Request) SetRowVersion(v int64) { r.RowVersion = v }
func (r *Request) Kind() RequestKind     { return KindMaterial }
func (r *Request) TargetUnitID() string  { return r.RequestingUnitID }
func (r *Request) CurrentStatus() Status { return r.Status }
func (r *Request) AssignedBatchID() string {
	return r.BatchID
}
