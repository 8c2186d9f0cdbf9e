package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chambadev/chamba/internal/config"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/sweeper"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Corre una pasada del expiry sweeper y termina",
		Long: "Fuerza IsAvailable=false para todo proveedor con suscripción vencida.\n" +
			"Pensado para correr como cron externo cuando el serve no tiene el sweeper habilitado.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context())
		},
	}
}

func runSweep(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	initLogger(cfg)
	defer logger.Sync() //nolint:errcheck

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	sw := sweeper.New(sweeper.Deps{
		Providers:  st.Providers(),
		Principals: st.Principals(),
		Notifier:   buildNotifier(cfg),
	})

	n, err := sw.SweepOnce(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	logger.Named("sweep").Info("sweep completed", logger.Count(n))
	return nil
}
