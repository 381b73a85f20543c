// Package fulfillment define las máquinas de estado de pedidos y lotes.
//
// Pedido de material y pedido de mueble comparten la misma definición: una lista de
// compuertas de aprobación (el punto de extensión; el mueble agrega diseñador y almacén)
// seguida del sufijo de entrega común (adjuntar a lote, separar, despachar, completar).
package fulfillment

import (
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// Event disparador de una transición.
type Event string

// Eventos de pedidos.
const (
	EventApprove         Event = "approve"
	EventApproveDesigner Event = "approve_designer"
	EventApproveStorage  Event = "approve_storage"
	EventReject          Event = "reject"
	EventAttach          Event = "attach"
	EventSeparate        Event = "separate"
	EventDispatch        Event = "dispatch"
	EventComplete        Event = "complete"
)

// Gate compuerta de aprobación humana.
type Gate struct {
	From  entity.Status
	Event Event
	To    entity.Status
}

// DeliveryStages estados del sufijo de entrega. Attached o Separated vacíos significan
// que la variante no tiene esa etapa (el pedido conserva su estado anterior).
type DeliveryStages struct {
	Ready      entity.Status
	Attached   entity.Status
	Separated  entity.Status
	Dispatched entity.Status
	Completed  entity.Status
}

// Definition describe una variante de pedido.
type Definition struct {
	Name       string
	Initial    entity.Status
	Gates      []Gate
	RejectFrom []entity.Status
	Delivery   DeliveryStages
}

// Machine máquina de estados construida a partir de una Definition.
type Machine struct {
	def   Definition
	edges map[entity.Status]map[Event]entity.Status
}

// NewMachine arma la tabla de transiciones.
func NewMachine(def Definition) *Machine {
	m := &Machine{def: def, edges: make(map[entity.Status]map[Event]entity.Status)}
	for _, g := range def.Gates {
		m.add(g.From, g.Event, g.To)
	}
	for _, from := range def.RejectFrom {
		m.add(from, EventReject, entity.StatusRejected)
	}

	d := def.Delivery
	attached := d.Ready
	if d.Attached != "" {
		attached = d.Attached
	}
	m.add(d.Ready, EventAttach, attached)

	dispatchFrom := attached
	if d.Separated != "" {
		m.add(attached, EventSeparate, d.Separated)
		dispatchFrom = d.Separated
	}
	m.add(dispatchFrom, EventDispatch, d.Dispatched)
	m.add(d.Dispatched, EventComplete, d.Completed)
	return m
}

func (m *Machine) add(from entity.Status, ev Event, to entity.Status) {
	if m.edges[from] == nil {
		m.edges[from] = make(map[Event]entity.Status)
	}
	m.edges[from][ev] = to
}

// Name nombre de la entidad para los mensajes de error.
func (m *Machine) Name() string { return m.def.Name }

// Initial estado de creación.
func (m *Machine) Initial() entity.Status { return m.def.Initial }

// Ready estado que habilita adjuntar el pedido a un lote.
func (m *Machine) Ready() entity.Status { return m.def.Delivery.Ready }

// NeedsSeparation indica si la variante exige separación respaldada por el libro.
func (m *Machine) NeedsSeparation() bool { return m.def.Delivery.Separated != "" }

// DispatchReady indica si un pedido en este estado no bloquea el despacho del lote.
func (m *Machine) DispatchReady(s entity.Status) bool {
	_, ok := m.edges[s][EventDispatch]
	return ok
}

// Can indica si el evento es legal desde el estado.
func (m *Machine) Can(from entity.Status, ev Event) bool {
	_, ok := m.edges[from][ev]
	return ok
}

// Next calcula el siguiente estado o devuelve StateConflictError sin efectos.
func (m *Machine) Next(id string, from entity.Status, ev Event) (entity.Status, error) {
	if to, ok := m.edges[from][ev]; ok {
		return to, nil
	}
	return "", &domain.StateConflictError{
		Entity:    m.def.Name,
		ID:        id,
		Current:   string(from),
		Attempted: string(m.target(ev)),
	}
}

// target estado al que lleva el evento desde cualquier origen (para mensajes).
func (m *Machine) target(ev Event) entity.Status {
	for _, evs := range m.edges {
		if to, ok := evs[ev]; ok {
			return to
		}
	}
	return entity.Status(ev)
}

// Material pedido de material: una compuerta (bodega) y sufijo con separación.
var Material = NewMachine(Definition{
	Name:    "pedido",
	Initial: entity.StatusPending,
	Gates: []Gate{
		{From: entity.StatusPending, Event: EventApprove, To: entity.StatusApproved},
	},
	RejectFrom: []entity.Status{entity.StatusPending, entity.StatusApproved},
	Delivery: DeliveryStages{
		Ready:      entity.StatusApproved,
		Attached:   entity.StatusProcessing,
		Separated:  entity.StatusAwaitingPickup,
		Dispatched: entity.StatusOutForDelivery,
		Completed:  entity.StatusCompleted,
	},
})

// Furniture pedido de mueble: compuertas de diseñador y almacén; la aprobación de
// almacén libera el mueble, por eso no hay separación.
var Furniture = NewMachine(Definition{
	Name:    "pedido de mueble",
	Initial: entity.StatusPendingDesigner,
	Gates: []Gate{
		{From: entity.StatusPendingDesigner, Event: EventApproveDesigner, To: entity.StatusApprovedDesigner},
		{From: entity.StatusApprovedDesigner, Event: EventApproveStorage, To: entity.StatusApprovedStorage},
	},
	RejectFrom: []entity.Status{entity.StatusPendingDesigner, entity.StatusApprovedDesigner},
	Delivery: DeliveryStages{
		Ready:      entity.StatusApprovedStorage,
		Dispatched: entity.StatusInTransit,
		Completed:  entity.StatusCompleted,
	},
})

// For devuelve la máquina de la variante.
func For(kind entity.RequestKind) *Machine {
	if kind == entity.KindFurniture {
		return Furniture
	}
	return Material
}
