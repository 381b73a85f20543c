package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de inventario.
type MovementType string

// Tipos de movimiento. El signo de cada uno lo define inventory.SignedQuantity.
const (
	MovementEntry       MovementType = "entry"       // entrada
	MovementConsumption MovementType = "consumption" // consumo
	MovementLoan        MovementType = "loan"        // préstamo
	MovementReturn      MovementType = "return"      // devolución
	MovementOut         MovementType = "out"         // salida
)

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntry, MovementConsumption, MovementLoan, MovementReturn, MovementOut:
		return true
	}
	return false
}

// Movement hecho inmutable del libro de inventario. Nunca se actualiza ni se elimina.
// ID y CreatedAt los asigna la capa de persistencia al insertar (orden global).
type Movement struct {
	ID        int64
	Type      MovementType
	ItemID    string
	UnitID    string
	UserID    string
	Quantity  decimal.Decimal // siempre > 0; el signo lo da Type
	Notes     string
	Reference string // código de escaneo del lote cuando el movimiento respalda una entrega
	RequestID string // pedido cuya separación respalda este movimiento (vacío si es manual)
	CreatedAt time.Time
}

// StockKey identifica una fila de stock (ítem, unidad).
type StockKey struct {
	ItemID string
	UnitID string
}

// Key devuelve la clave de stock afectada por el movimiento.
func (m *Movement) Key() StockKey {
	return StockKey{ItemID: m.ItemID, UnitID: m.UnitID}
}
