package entity

// Item ítem del catálogo (material o mueble). Solo lectura para este servicio.
type Item struct {
	ID          string
	Name        string
	UnitMeasure string
	IsFurniture bool
}
