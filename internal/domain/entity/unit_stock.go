package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de salud de una fila de stock en las lecturas.
const (
	StockHealthy      = "healthy"
	StockBelowMinimum = "below_minimum"
	StockNegative     = "negative"
)

// UnitStock proyección (cache) de la cantidad actual de un ítem en una unidad.
// Quantity solo la escribe el proyector a partir del libro de movimientos.
type UnitStock struct {
	ID              string
	ItemID          string
	UnitID          string
	Quantity        decimal.Decimal
	MinimumQuantity decimal.Decimal
	Location        string
	// LastMovementID último movimiento incorporado; si el libro tiene uno mayor la fila está desactualizada.
	LastMovementID int64
	RowVersion     int64
	UpdatedAt      time.Time
}

func (s *UnitStock) GetID() string         { return s.ID }
func (s *UnitStock) GetRowVersion() int64  { return s.RowVersion }
func (s *UnitStock) SetRowVersion(v int64) { s.RowVersion = v }
func (s *UnitStock) Key() StockKey         { return StockKey{ItemID: s.ItemID, UnitID: s.UnitID} }
