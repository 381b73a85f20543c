package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/movements.
type RecordMovementRequest struct {
	Type      string          `json:"type" validate:"required,oneof=entry consumption loan return out"`
	ItemID    string          `json:"item_id" validate:"required"`
	UnitID    string          `json:"unit_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes,omitempty" validate:"max=500"`
	Reference string          `json:"reference,omitempty" validate:"max=64"`
}

// MovementResponse movimiento registrado.
type MovementResponse struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	ItemID    string          `json:"item_id"`
	UnitID    string          `json:"unit_id"`
	UserID    string          `json:"user_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes,omitempty"`
	Reference string          `json:"reference,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// RecordMovementResponse movimiento más la proyección resultante.
type RecordMovementResponse struct {
	Movement MovementResponse `json:"movement"`
	Stock    StockResponse    `json:"stock"`
}

// MovementListRequest filtros para GET /api/movements.
type MovementListRequest struct {
	ItemID    string `query:"item_id"`
	UnitID    string `query:"unit_id"`
	Reference string `query:"reference"`
	PageRequest
}

// MovementListResponse listado paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockResponse fila de stock con su estado de salud (healthy | below_minimum | negative).
type StockResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	UnitID          string          `json:"unit_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	Location        string          `json:"location,omitempty"`
	Health          string          `json:"health"`
	LastMovementID  int64           `json:"last_movement_id"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StockListResponse stock de una unidad.
type StockListResponse struct {
	UnitID string          `json:"unit_id"`
	Items  []StockResponse `json:"items"`
}

// OverrideStockRequest body para PUT /api/stock/:id. Campos nulos no cambian.
// Un cambio de quantity se registra como movimiento compensatorio.
type OverrideStockRequest struct {
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity,omitempty"`
	Location        *string          `json:"location,omitempty" validate:"omitempty,max=120"`
	Notes           string           `json:"notes,omitempty" validate:"max=500"`
}

// OverrideStockResponse fila resultante y, si hubo ajuste de cantidad, el movimiento compensatorio.
type OverrideStockResponse struct {
	Stock      StockResponse     `json:"stock"`
	Adjustment *MovementResponse `json:"adjustment,omitempty"`
}

// RebuildResponse resultado de reconstruir la proyección desde el libro.
type RebuildResponse struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
}
