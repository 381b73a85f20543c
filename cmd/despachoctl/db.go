package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Despacho-api/internal/application/inventory"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/postgres"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas en PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dbCfg := e.cfg.DB
			dbCfg.AutoMigrate = false
			pool, err := postgres.NewPool(ctx, dbCfg, e.log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
			version, err := postgres.MigrationVersion(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migraciones aplicadas, versión %d\n", version)
			return nil
		},
	}
}

func newReconcileCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Reconstruye el stock proyectado desde el libro de movimientos",
		Long: "Recalcula cada fila de stock a partir de los movimientos registrados y corrige las que difieran.\n" +
			"Se usa después de un error RECONCILIATION_NEEDED.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.App.StorageDriver != "postgres" {
				return errors.New("reconcile solo aplica a STORAGE_DRIVER=postgres")
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, e.cfg.DB, e.log)
			if err != nil {
				return err
			}
			defer pool.Close()

			rt := ports.Runtime{
				Tx:              postgres.NewTxRunner(pool),
				Directory:       postgres.NewDirectoryRepository(pool),
				WarehouseUnitID: e.cfg.Warehouse.UnitID,
				Retry:           ports.RetryPolicy{MaxAttempts: e.cfg.App.TxMaxRetries},
				Log:             e.log,
			}.WithDefaults()

			res, err := inventory.NewProjector(rt).RebuildAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "filas revisadas: %d, reparadas: %d\n", res.Checked, res.Repaired)
			return nil
		},
	}
}
