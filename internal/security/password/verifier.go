package password

import (
	"context"
	"errors"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// ErrBadCredentials indica email desconocido o password incorrecto.
// Ambos casos se reportan igual para no filtrar qué emails existen.
var ErrBadCredentials = errors.New("password: bad credentials")

// Verifier implementa auth.CredentialVerifier contra el user-store.
type Verifier struct {
	principals repository.PrincipalRepository
}

// NewVerifier crea el verifier.
func NewVerifier(principals repository.PrincipalRepository) *Verifier {
	return &Verifier{principals: principals}
}

// Verify busca el principal por email y chequea el password.
func (v *Verifier) Verify(ctx context.Context, email, plain string) (*repository.Principal, error) {
	p, err := v.principals.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if p.PasswordHash == "" || !Verify(plain, p.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return p, nil
}
