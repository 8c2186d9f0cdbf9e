package main

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/chambadev/chamba/internal/config"
	"github.com/chambadev/chamba/internal/observability/logger"
	migrations "github.com/chambadev/chamba/migrations/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down] [steps]",
		Short: "Aplica las migraciones Postgres embebidas",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			steps := 0
			if len(args) >= 1 && args[0] != "" {
				action = strings.ToLower(args[0])
			}
			if len(args) >= 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps inválido: %q", args[1])
				}
				steps = n
			}
			return runMigrate(cmd.Context(), action, steps)
		},
	}
}

func runMigrate(ctx context.Context, action string, steps int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	initLogger(cfg)
	defer logger.Sync() //nolint:errcheck
	log := logger.Named("migrate")

	if cfg.Storage.DSN == "" {
		return fmt.Errorf("migrate requiere storage.dsn (o STORAGE_DSN)")
	}
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	var suffix string
	switch action {
	case "up":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return fmt.Errorf("acción desconocida %q (up|down)", action)
	}

	files, err := listSQL(suffix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Info("no migrations to apply")
		return nil
	}
	sort.Strings(files)
	if action == "down" {
		// Los down corren del más reciente al más viejo.
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	for _, f := range files {
		b, err := migrations.FS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		start := time.Now()
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		log.Info("migration applied",
			logger.String("file", f),
			logger.Duration(time.Since(start)))
	}
	return nil
}

func listSQL(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
