// Command despachoctl tareas de operación: migraciones, reconstrucción del stock,
// códigos diarios y tokens de prueba.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Despacho-api/pkg/config"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

// env configuración y logger compartidos por los subcomandos; se cargan en PersistentPreRunE.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "despachoctl",
		Short:         "Operación del servicio de despacho",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			e.cfg = cfg
			e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
			return nil
		},
	}
	root.AddCommand(
		newMigrateCmd(e),
		newReconcileCmd(e),
		newCodeCmd(e),
		newTokenCmd(e),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
