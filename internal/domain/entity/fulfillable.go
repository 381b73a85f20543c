package entity

// RequestKind variante del pedido.
type RequestKind string

const (
	KindMaterial  RequestKind = "material"
	KindFurniture RequestKind = "furniture"
)

// Fulfillable lo implementan Request y FurnitureRequest; es lo que el orquestador de lotes
// necesita saber de cualquier pedido sin importar su variante.
type Fulfillable interface {
	GetID() string
	Kind() RequestKind
	TargetUnitID() string
	CurrentStatus() Status
	AssignedBatchID() string
	GetRowVersion() int64
}

var (
	_ Fulfillable = (*Request)(nil)
	_ Fulfillable = (*FurnitureRequest)(nil)
)
