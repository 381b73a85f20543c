package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/inventory"
)

func TestCheckQuantity(t *testing.T) {
	ok := []string{"1", "0.0001", "12.5", "1.25000", "99999999999999.9999"}
	for _, v := range ok {
		assert.NoError(t, inventory.CheckQuantity("quantity", decimal.RequireFromString(v)), v)
	}

	bad := []string{"0.00001", "3.14159", "100000000000000"}
	for _, v := range bad {
		err := inventory.CheckQuantity("quantity", decimal.RequireFromString(v))
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, v)
		assert.Equal(t, "quantity", verr.Field)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}
