package ports

import "github.com/jhoicas/Despacho-api/internal/application/dto"

// LabelGenerator genera la etiqueta imprimible (PDF) de un lote con su código de escaneo.
type LabelGenerator interface {
	GenerateBatchLabel(data *dto.BatchLabelData) ([]byte, error)
}
