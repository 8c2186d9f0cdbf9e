package repository

import "context"

// Role es el rol asignado a un principal.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Valid reporta si el rol es uno de los conocidos.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Principal representa un actor autenticado del marketplace.
// El core sólo lee ID/Role/Email; nunca muta estos campos.
type Principal struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Reputation   float64
	Role         Role
	PasswordHash string
}

// PrincipalRepository define lecturas sobre principals.
// La escritura es propiedad del user-store externo.
type PrincipalRepository interface {
	// GetByID busca un principal por ID. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Principal, error)

	// GetByEmail busca un principal por email (case-insensitive).
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*Principal, error)
}
