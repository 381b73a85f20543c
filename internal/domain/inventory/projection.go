package inventory

import (
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultMinimumQuantity mínimo asignado a una fila de stock creada por el proyector.
var DefaultMinimumQuantity = decimal.Zero

// SignedQuantity aplica la tabla de signos del libro (servicio de dominio):
//
//	entry, return            → +cantidad
//	consumption, loan, out   → −cantidad
func SignedQuantity(t entity.MovementType, qty decimal.Decimal) decimal.Decimal {
	switch t {
	case entity.MovementEntry, entity.MovementReturn:
		return qty
	case entity.MovementConsumption, entity.MovementLoan, entity.MovementOut:
		return qty.Neg()
	}
	return decimal.Zero
}

// Project recalcula la cantidad de una clave a partir de la porción completa del libro.
// Devuelve también el mayor ID de movimiento visto.
func Project(movements []*entity.Movement) (decimal.Decimal, int64) {
	total := decimal.Zero
	var last int64
	for _, m := range movements {
		total = total.Add(SignedQuantity(m.Type, m.Quantity))
		if m.ID > last {
			last = m.ID
		}
	}
	return total, last
}

// Health clasifica una fila de stock para las lecturas. Negativo se distingue siempre de sano.
func Health(s *entity.UnitStock) string {
	switch {
	case s.Quantity.IsNegative():
		return entity.StockNegative
	case s.Quantity.LessThan(s.MinimumQuantity):
		return entity.StockBelowMinimum
	default:
		return entity.StockHealthy
	}
}

// Delta devuelve el movimiento compensatorio que lleva current a target (ajuste manual).
// ok es false si no hay diferencia.
func Delta(current, target decimal.Decimal) (entity.MovementType, decimal.Decimal, bool) {
	diff := target.Sub(current)
	switch {
	case diff.IsPositive():
		return entity.MovementEntry, diff, true
	case diff.IsNegative():
		return entity.MovementOut, diff.Neg(), true
	}
	return "", decimal.Zero, false
}
