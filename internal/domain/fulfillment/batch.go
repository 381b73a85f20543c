package fulfillment

import (
	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/entity"
)

// Eventos del lote.
const (
	BatchDispatch        Event = "dispatch"
	BatchConfirmDelivery Event = "confirm_delivery"
	BatchDefer           Event = "defer_confirmation"
	BatchReceive         Event = "receive"
)

var batchEdges = map[entity.Status]map[Event]entity.Status{
	entity.StatusPending: {
		BatchDispatch: entity.StatusInTransit,
	},
	entity.StatusInTransit: {
		BatchConfirmDelivery: entity.StatusDeliveryConfirmed,
		BatchDefer:           entity.StatusPendingConfirmation,
	},
	entity.StatusDeliveryConfirmed: {
		BatchReceive: entity.StatusCompleted,
	},
	entity.StatusPendingConfirmation: {
		BatchReceive: entity.StatusCompleted,
	},
}

// NextBatch calcula el siguiente estado del lote.
func NextBatch(id string, from entity.Status, ev Event) (entity.Status, error) {
	if to, ok := batchEdges[from][ev]; ok {
		return to, nil
	}
	attempted := string(ev)
	for _, evs := range batchEdges {
		if to, ok := evs[ev]; ok {
			attempted = string(to)
			break
		}
	}
	return "", &domain.StateConflictError{Entity: "lote", ID: id, Current: string(from), Attempted: attempted}
}

// CanComplete exige al menos una confirmación equivalente a recepción.
func CanComplete(confirmations []*entity.DeliveryConfirmation) bool {
	for _, c := range confirmations {
		if c.Type.IsReceiptEquivalent() {
			return true
		}
	}
	return false
}
