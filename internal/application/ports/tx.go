package ports

import (
	"context"
	"errors"

	"github.com/jhoicas/Despacho-api/internal/domain"
	"github.com/jhoicas/Despacho-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Movements     repository.MovementRepository
	Stock         repository.UnitStockRepository
	Requests      repository.RequestRepository
	Furniture     repository.FurnitureRequestRepository
	Batches       repository.DeliveryBatchRepository
	Confirmations repository.ConfirmationRepository
}

// TxRunner ejecuta fn dentro de una transacción; Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}

// RetryPolicy reintentos de RunInTx.
type RetryPolicy struct {
	// MaxAttempts intentos ante ErrVersionConflict (otro escritor ganó el compare-and-set).
	MaxAttempts int
	// OnRetry se llama antes de cada reintento con la operación y el motivo (version_conflict | persistence).
	OnRetry func(op, reason string)
}

// RunInTx ejecuta fn en una transacción. fn debe poder repetirse: vuelve a leer todo lo que necesita.
//
// Conflictos de versión se reintentan hasta MaxAttempts; errores de negocio se devuelven tal cual;
// cualquier otro error se reintenta una vez y luego se devuelve como *domain.PersistenceError.
func RunInTx(ctx context.Context, tx TxRunner, p RetryPolicy, op string, fn func(r TxRepos) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	conflicts, failures := 0, 0
	for {
		err := tx.Run(ctx, fn)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrVersionConflict):
			conflicts++
			if conflicts >= maxAttempts {
				return err
			}
			p.notify(op, "version_conflict")
		case domain.IsDomainError(err):
			return err
		case ctx.Err() != nil:
			return &domain.PersistenceError{Op: op, Err: err}
		default:
			failures++
			if failures > 1 {
				return &domain.PersistenceError{Op: op, Err: err}
			}
			p.notify(op, "persistence")
		}
	}
}

func (p RetryPolicy) notify(op, reason string) {
	if p.OnRetry != nil {
		p.OnRetry(op, reason)
	}
}
