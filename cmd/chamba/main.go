// chamba es el binario del core de sesiones y suscripciones del marketplace.
//
// Subcomandos:
//
//	serve    levanta el HTTP server y el expiry sweeper
//	sweep    corre una sola pasada del sweeper y termina
//	migrate  aplica las migraciones Postgres embebidas
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	// .env es opcional; en prod la config viaja por env del entorno.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "chamba",
		Short:         "Core de sesiones, tokens y suscripciones de Chamba",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path al YAML de configuración (opcional)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newMigrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
