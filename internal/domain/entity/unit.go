package entity

// Unit unidad organizacional (sede, sector o almacén). Solo lectura para este servicio.
type Unit struct {
	ID     string
	Name   string
	Active bool
}
