package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrCrossUnitBatch       = errors.New("todos los ítems deben pertenecer a la misma unidad")
	ErrInvalidCode          = errors.New("código diario inválido")
	ErrReconciliationNeeded = errors.New("se requiere reconciliación")
	// ErrVersionConflict lo devuelven los repositorios cuando la fila cambió desde la lectura (row_version).
	ErrVersionConflict = errors.New("row_version_conflict")
)

// ValidationError entrada mal formada o fuera de rango; se rechaza antes de cualquier escritura.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StateConflictError transición intentada desde un estado que ya no corresponde.
// Es seguro reintentar después de volver a leer la entidad.
type StateConflictError struct {
	Entity    string
	ID        string
	Current   string
	Attempted string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s %s: no se puede pasar de %q a %q", e.Entity, e.ID, e.Current, e.Attempted)
}

func (e *StateConflictError) Unwrap() error { return ErrConflict }

// CrossUnitBatchError el lote mezclaría unidades de destino. Nunca se reintenta.
type CrossUnitBatchError struct {
	RequestID     string
	RequestUnitID string
	TargetUnitID  string
}

func (e *CrossUnitBatchError) Error() string {
	return fmt.Sprintf("pedido %s pertenece a la unidad %s y el lote va a %s: %s",
		e.RequestID, e.RequestUnitID, e.TargetUnitID, ErrCrossUnitBatch.Error())
}

func (e *CrossUnitBatchError) Unwrap() error { return ErrCrossUnitBatch }

// PersistenceError fallo de escritura en almacenamiento. Cuando ReconciliationNeeded es true
// el libro de movimientos ya registró el hecho pero la proyección quedó desactualizada.
type PersistenceError struct {
	Op                   string
	Err                  error
	ReconciliationNeeded bool
}

func (e *PersistenceError) Error() string {
	if e.ReconciliationNeeded {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, ErrReconciliationNeeded.Error())
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	if e.ReconciliationNeeded {
		return []error{e.Err, ErrReconciliationNeeded}
	}
	return []error{e.Err}
}

// InsufficientStockWarning no es un error: la aprobación procede pero el llamador debe ser informado.
type InsufficientStockWarning struct {
	ItemID    string
	UnitID    string
	Available decimal.Decimal
	Requested decimal.Decimal
}

// Message texto legible para la respuesta HTTP.
func (w InsufficientStockWarning) Message() string {
	return fmt.Sprintf("stock insuficiente en bodega: disponible %s, solicitado %s",
		w.Available.String(), w.Requested.String())
}

// IsDomainError indica si err es un error de negocio (no de infraestructura).
// Los errores de negocio nunca se reintentan como fallos de persistencia.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrUnauthorized, ErrForbidden,
		ErrConflict, ErrInsufficientStock, ErrCrossUnitBatch, ErrInvalidCode, ErrVersionConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
