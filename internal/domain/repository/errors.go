package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: duplicado, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyRevoked indica que el refresh record ya estaba revocado.
	// El update condicional "revoke-if-not-revoked" lo retorna cuando otro
	// proceso consumió el token primero.
	ErrAlreadyRevoked = errors.New("record already revoked")

	// ErrUnavailable indica que el storage no respondió (timeout/outage).
	// Nunca debe interpretarse como "permitido".
	ErrUnavailable = errors.New("storage unavailable")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable verifica si el error es ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
