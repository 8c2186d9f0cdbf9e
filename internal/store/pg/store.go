// Package pg implementa repository.Store sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/observability/logger"
)

// Config afina el pool. Cero = defaults de pgxpool.
type Config struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime string
}

// Store es el adapter Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New crea el pool y verifica conectividad con un ping no bloqueante: si la
// base está caída al arranque, el servicio levanta igual y /readyz reporta
// degradado hasta que vuelva.
func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: new pool: %w", err)
	}

	log := logger.L().With(logger.Component("store.pg"))
	if err := pool.Ping(ctx); err != nil {
		log.Warn("startup ping failed", logger.Err(err))
	} else {
		log.Info("pool ready", logger.Any("max_conns", pcfg.MaxConns))
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Principals() repository.PrincipalRepository {
	return &principalRepo{pool: s.pool}
}

func (s *Store) RefreshRecords() repository.RefreshRecordRepository {
	return &recordRepo{pool: s.pool}
}

func (s *Store) Subscriptions() repository.SubscriptionRepository {
	return &subscriptionRepo{pool: s.pool}
}

func (s *Store) Providers() repository.ProviderRepository {
	return &providerRepo{pool: s.pool}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close cierra el pool (idempotente).
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Pool expone el pool interno para usos avanzados (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }
