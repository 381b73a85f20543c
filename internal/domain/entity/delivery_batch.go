package entity

import "time"

// Estados del lote (además de StatusPending, StatusInTransit y StatusCompleted).
const (
	StatusDeliveryConfirmed   Status = "delivery_confirmed"
	StatusPendingConfirmation Status = "pending_confirmation"
)

// DeliveryBatch envío que agrupa pedidos aprobados hacia una misma unidad de destino.
type DeliveryBatch struct {
	ID                  string
	RequestIDs          []string
	FurnitureRequestIDs []string
	TargetUnitID        string
	DriverUserID        string
	ScanCode            string
	Status              Status
	CreatedBy           string
	Notes               string

	CreatedAt             time.Time
	DispatchedAt          *time.Time
	DeliveryConfirmedAt   *time.Time
	PendingConfirmationAt *time.Time
	CompletedAt           *time.Time

	RowVersion int64
	UpdatedAt  time.Time
}

func (b *DeliveryBatch) GetID() string         { return b.ID }
func (b *DeliveryBatch) GetRowVersion() int64  { return b.RowVersion }
func (b *DeliveryBatch) SetRowVersion(v int64) { b.RowVersion = v }
