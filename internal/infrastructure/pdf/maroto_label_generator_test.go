package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/pdf"
)

func TestGenerateBatchLabel(t *testing.T) {
	g := pdf.NewMarotoLabelGenerator()
	out, err := g.GenerateBatchLabel(&dto.BatchLabelData{
		BatchID:        "b-1",
		ScanCode:       "ENT-261016-7K3QX9PM",
		TargetUnitName: "Sede norte",
		DriverName:     "Conductor",
		CreatedAt:      time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
		Lines: []dto.BatchLabelLine{
			{Kind: "material", ItemID: "i-1", ItemName: "Cemento gris 50kg", Quantity: decimal.NewFromInt(4), Measure: "bulto"},
			{Kind: "furniture", ItemID: "i-2", ItemName: "Escritorio en L", Quantity: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = g.GenerateBatchLabel(&dto.BatchLabelData{})
	assert.Error(t, err)
}
