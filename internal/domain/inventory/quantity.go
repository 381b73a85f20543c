package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Despacho-api/internal/domain"
)

// QuantityScale decimales que guardan las columnas NUMERIC(18,4).
const QuantityScale = 4

var maxQuantity = decimal.New(1, 18-QuantityScale)

// CheckQuantity rechaza cantidades que el almacenamiento redondearía o no podría guardar.
func CheckQuantity(field string, q decimal.Decimal) error {
	if !q.Equal(q.Truncate(QuantityScale)) {
		return domain.NewValidationError(field, fmt.Sprintf("admite hasta %d decimales", QuantityScale))
	}
	if q.Abs().GreaterThanOrEqual(maxQuantity) {
		return domain.NewValidationError(field, "la cantidad excede el máximo permitido")
	}
	return nil
}
