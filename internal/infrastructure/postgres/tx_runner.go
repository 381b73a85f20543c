package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/domain"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Serialización fallida o deadlock se reportan como ErrVersionConflict para que RunInTx reintente.
func (r *TxRunner) Run(ctx context.Context, fn func(ports.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := ports.TxRepos{
		Movements:     NewMovementRepository(tx),
		Stock:         NewUnitStockRepository(tx),
		Requests:      NewRequestRepository(tx),
		Furniture:     NewFurnitureRequestRepository(tx),
		Batches:       NewBatchRepository(tx),
		Confirmations: NewConfirmationRepository(tx),
	}
	if err := fn(repos); err != nil {
		if isRetryable(err) {
			return fmt.Errorf("%w: %v", domain.ErrVersionConflict, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isRetryable(err) {
			return fmt.Errorf("%w: commit: %v", domain.ErrVersionConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
