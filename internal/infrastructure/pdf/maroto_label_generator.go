// Package pdf genera la etiqueta imprimible del lote de entrega.
//
// Layout de la página A5:
//
//	┌───────────────────────────────────────────┐
//	│  LOTE DE ENTREGA       │  Fecha            │
//	│  Unidad destino + conductor                │
//	│  ────────────────────────────────────────  │
//	│  QR (código de escaneo) │ código impreso   │
//	│  Código de barras 128                      │
//	│  ────────────────────────────────────────  │
//	│  TABLA: Tipo | Ítem | Cant | Medida        │
//	│  Firma de recibido                         │
//	└───────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Despacho-api/internal/application/dto"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
)

var _ ports.LabelGenerator = (*MarotoLabelGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// MarotoLabelGenerator implementa ports.LabelGenerator usando Maroto v2.
type MarotoLabelGenerator struct{}

// NewMarotoLabelGenerator construye el generador.
func NewMarotoLabelGenerator() *MarotoLabelGenerator { return &MarotoLabelGenerator{} }

// GenerateBatchLabel genera el PDF y devuelve sus bytes.
func (g *MarotoLabelGenerator) GenerateBatchLabel(data *dto.BatchLabelData) ([]byte, error) {
	if data == nil || data.ScanCode == "" {
		return nil, fmt.Errorf("pdf: lote sin código de escaneo")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Lote "+data.ScanCode, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(codeRows(data)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(data.Lines)...)
	m.AddRows(line.NewRow(4))
	m.AddRows(signatureRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar etiqueta: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: título, destino y conductor (izq) y fecha (der).
func headerRow(d *dto.BatchLabelData) core.Row {
	return row.New(20).Add(
		col.New(8).Add(
			text.New("LOTE DE ENTREGA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Destino: "+nonEmpty(d.TargetUnitName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 9,
			}),
			text.New("Conductor: "+nonEmpty(d.DriverName, "—"), props.Text{
				Size: 8, Top: 15, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Creado", props.Text{Size: 7, Align: align.Right, Top: 2, Color: colorGray}),
			text.New(d.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 7,
			}),
		),
	)
}

// codeRows: QR y código de barras con el mismo código de escaneo.
func codeRows(d *dto.BatchLabelData) []core.Row {
	return []core.Row{
		row.New(38).Add(
			col.New(5).Add(code.NewQr(d.ScanCode, props.Rect{Percent: 95, Center: true})),
			col.New(7).Add(
				text.New("Escanee al recibir", props.Text{Size: 8, Top: 6, Left: 3, Color: colorGray}),
				text.New(d.ScanCode, props.Text{
					Style: fontstyle.Bold, Size: 14, Top: 14, Left: 3, Color: colorPrimary,
				}),
				text.New(fmt.Sprintf("%d ítem(s)", len(d.Lines)), props.Text{Size: 8, Top: 24, Left: 3}),
			),
		),
		row.New(16).Add(
			col.New(12).Add(code.NewBar(d.ScanCode, props.Barcode{Percent: 90, Center: true})),
		),
	}
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Tipo", 2, align.Left),
		h("Ítem", 6, align.Left),
		h("Cant.", 2, align.Right),
		h("Medida", 2, align.Left),
	)
}

// tableRows: una fila por pedido del lote.
func tableRows(lines []dto.BatchLabelLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		kind := "Material"
		if l.Kind == "furniture" {
			kind = "Mueble"
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(kind, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(6).Add(text.New(l.ItemName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(l.Quantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(nonEmpty(l.Measure, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
		))
	}
	return result
}

func signatureRow() core.Row {
	return row.New(14).Add(
		col.New(6).Add(
			text.New("______________________________", props.Text{Size: 8, Top: 4, Color: colorGray}),
			text.New("Recibido por", props.Text{Size: 7, Top: 10, Color: colorGray}),
		),
		col.New(6).Add(
			text.New("______________________________", props.Text{Size: 8, Top: 4, Color: colorGray}),
			text.New("Fecha y hora", props.Text{Size: 7, Top: 10, Color: colorGray}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
