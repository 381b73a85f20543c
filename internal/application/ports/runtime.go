package ports

import (
	"time"

	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// Runtime dependencias comunes de los casos de uso.
type Runtime struct {
	Tx        TxRunner
	Directory Directory
	// WarehouseUnitID bodega canónica, resuelta una sola vez al arrancar.
	WarehouseUnitID string
	Retry           RetryPolicy
	Metrics         Metrics
	Log             *logger.Logger
	Now             func() time.Time
}

// WithDefaults completa los campos opcionales.
func (rt Runtime) WithDefaults() Runtime {
	if rt.Metrics == nil {
		rt.Metrics = NopMetrics{}
	}
	if rt.Log == nil {
		rt.Log = logger.Nop()
	}
	if rt.Now == nil {
		rt.Now = time.Now
	}
	if rt.Retry.MaxAttempts < 1 {
		rt.Retry.MaxAttempts = 3
	}
	if rt.Retry.OnRetry == nil {
		m := rt.Metrics
		rt.Retry.OnRetry = m.TxRetry
	}
	return rt
}
