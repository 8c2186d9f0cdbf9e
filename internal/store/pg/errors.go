package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chambadev/chamba/internal/domain/repository"
)

const pgUniqueViolation = "23505"

// mapErr traduce errores de pgx a los sentinels de repository. Todo lo que
// huele a infraestructura caída se reporta como ErrUnavailable: el caller
// decide si reintenta, nunca cuántas veces reintentamos acá.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return repository.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("pg: %s: %w", op, repository.ErrUnavailable)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return repository.ErrConflict
		}
		// Errores SQL genuinos (constraint, tipo, sintaxis) no son transitorios.
		return fmt.Errorf("pg: %s: %w", op, err)
	}

	// Fallos de conexión/red.
	return fmt.Errorf("pg: %s: %w", op, repository.ErrUnavailable)
}
