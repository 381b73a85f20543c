package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBatchRequest body para POST /api/batches.
// TargetUnitID vacío: se toma la unidad del primer pedido.
type CreateBatchRequest struct {
	RequestIDs          []string `json:"request_ids"`
	FurnitureRequestIDs []string `json:"furniture_request_ids,omitempty"`
	TargetUnitID        string   `json:"target_unit_id,omitempty"`
	DriverUserID        string   `json:"driver_user_id"`
	Notes               string   `json:"notes,omitempty" validate:"max=1000"`
}

// Acciones aceptadas por PUT /api/batches/:id.
const (
	BatchActionSeparate          = "separate"
	BatchActionDispatch          = "dispatch"
	BatchActionConfirmDelivery   = "confirm_delivery"
	BatchActionDeferConfirmation = "defer_confirmation"
)

// TransitionBatchRequest body para PUT /api/batches/:id.
type TransitionBatchRequest struct {
	Action         string `json:"action" validate:"required,oneof=separate dispatch confirm_delivery defer_confirmation"`
	RequestID      string `json:"request_id,omitempty"`
	ReceiverUserID string `json:"receiver_user_id,omitempty"`
	Code           string `json:"code,omitempty"`
	PhotoRef       string `json:"photo_ref,omitempty" validate:"max=500"`
	Notes          string `json:"notes,omitempty" validate:"max=1000"`
}

// BatchResponse lote de entrega.
type BatchResponse struct {
	ID                    string     `json:"id"`
	RequestIDs            []string   `json:"request_ids"`
	FurnitureRequestIDs   []string   `json:"furniture_request_ids"`
	TargetUnitID          string     `json:"target_unit_id"`
	DriverUserID          string     `json:"driver_user_id"`
	ScanCode              string     `json:"scan_code"`
	Status                string     `json:"status"`
	CreatedBy             string     `json:"created_by"`
	Notes                 string     `json:"notes,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	DispatchedAt          *time.Time `json:"dispatched_at,omitempty"`
	DeliveryConfirmedAt   *time.Time `json:"delivery_confirmed_at,omitempty"`
	PendingConfirmationAt *time.Time `json:"pending_confirmation_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// BatchDetailResponse lote con sus pedidos y confirmaciones.
type BatchDetailResponse struct {
	Batch             BatchResponse              `json:"batch"`
	Requests          []RequestResponse          `json:"requests"`
	FurnitureRequests []FurnitureRequestResponse `json:"furniture_requests"`
	Confirmations     []ConfirmationResponse     `json:"confirmations"`
}

// SeparateResponse resultado de separar un pedido; Dispatched indica que el lote salió.
type SeparateResponse struct {
	Batch      BatchResponse    `json:"batch"`
	Request    RequestResponse  `json:"request"`
	Movement   MovementResponse `json:"movement"`
	Dispatched bool             `json:"dispatched"`
}

// BatchListRequest filtros para GET /api/batches.
type BatchListRequest struct {
	Status       string `query:"status"`
	DriverUserID string `query:"driver_user_id"`
	TargetUnitID string `query:"target_unit_id"`
	PageRequest
}

// BatchListResponse listado paginado.
type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// ConfirmRequest body para POST /api/confirmations.
//   - delivery: BatchID, ReceiverUserID, Code (código del receptor), lo presenta el conductor.
//   - receipt: ScanCode, lo escanea el controlador de la unidad destino.
//   - requester: BatchID o ScanCode, Code propio del miembro de la unidad.
type ConfirmRequest struct {
	Type           string `json:"type" validate:"required,oneof=delivery receipt requester"`
	BatchID        string `json:"batch_id,omitempty"`
	ScanCode       string `json:"scan_code,omitempty"`
	ReceiverUserID string `json:"receiver_user_id,omitempty"`
	Code           string `json:"code,omitempty"`
	PhotoRef       string `json:"photo_ref,omitempty" validate:"max=500"`
	Notes          string `json:"notes,omitempty" validate:"max=1000"`
}

// ConfirmationResponse confirmación registrada.
type ConfirmationResponse struct {
	ID                string    `json:"id"`
	BatchID           string    `json:"batch_id"`
	Type              string    `json:"type"`
	ConfirmedByUserID string    `json:"confirmed_by_user_id"`
	AttestedByUserID  string    `json:"attested_by_user_id,omitempty"`
	PhotoRef          string    `json:"photo_ref,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ConfirmResponse confirmación más el lote resultante.
type ConfirmResponse struct {
	Confirmation ConfirmationResponse `json:"confirmation"`
	Batch        BatchResponse        `json:"batch"`
}

// BatchLabelLine línea de la etiqueta.
type BatchLabelLine struct {
	Kind     string          `json:"kind"` // material | furniture
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Measure  string          `json:"measure,omitempty"`
}

// BatchLabelData datos para la etiqueta imprimible del lote.
type BatchLabelData struct {
	BatchID        string
	ScanCode       string
	TargetUnitName string
	DriverName     string
	CreatedAt      time.Time
	Lines          []BatchLabelLine
}

// BatchTransitionResponse resultado de PUT /api/batches/:id; según la acción viene
// la separación o la confirmación además del lote.
type BatchTransitionResponse struct {
	Action       string                `json:"action"`
	Batch        BatchResponse         `json:"batch"`
	Separation   *SeparateResponse     `json:"separation,omitempty"`
	Confirmation *ConfirmationResponse `json:"confirmation,omitempty"`
}
