package ports

// Metrics puerto de observabilidad de los casos de uso.
type Metrics interface {
	MovementRecorded(movementType string)
	Transition(entity, to string)
	InsufficientStock()
	ProjectionRepaired()
	ReconciliationNeeded(op string)
	TxRetry(op, reason string)
}

// NopMetrics descarta todo.
type NopMetrics struct{}

func (NopMetrics) MovementRecorded(string)     {}
func (NopMetrics) Transition(string, string)   {}
func (NopMetrics) InsufficientStock()          {}
func (NopMetrics) ProjectionRepaired()         {}
func (NopMetrics) ReconciliationNeeded(string) {}
func (NopMetrics) TxRetry(string, string)      {}
