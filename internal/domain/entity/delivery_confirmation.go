package entity

import "time"

// ConfirmationType tipo de confirmación de un lote.
type ConfirmationType string

const (
	ConfirmationDelivery  ConfirmationType = "delivery"  // conductor, al entregar
	ConfirmationReceipt   ConfirmationType = "receipt"   // controlador de la unidad, escaneando el código
	ConfirmationRequester ConfirmationType = "requester" // miembro de la unidad con su código diario
)

// IsReceiptEquivalent indica si la confirmación habilita completar el lote.
func (t ConfirmationType) IsReceiptEquivalent() bool {
	return t == ConfirmationReceipt || t == ConfirmationRequester
}

// DeliveryConfirmation evento inmutable de confirmación.
type DeliveryConfirmation struct {
	ID                string
	BatchID           string
	Type              ConfirmationType
	ConfirmedByUserID string
	// AttestedByUserID usuario cuyo código diario se presentó (receptor en la confirmación de entrega).
	AttestedByUserID string
	PhotoRef         string
	Notes            string
	CreatedAt        time.Time
}
