package repository

import (
	"context"
	"time"
)

// ProviderKind es el tipo de proveedor de servicios.
// El core sólo lee Kind y Availability; los campos de especialización son
// opacos (variante etiquetada, no jerarquía de clases).
type ProviderKind string

const (
	KindWorker      ProviderKind = "worker"
	KindCompany     ProviderKind = "company"
	KindContractor  ProviderKind = "contractor"
	KindEngineer    ProviderKind = "engineer"
	KindMarketplace ProviderKind = "marketplace"
)

// ProviderProfile es el perfil de proveedor de un principal.
type ProviderProfile struct {
	OwnerID        string
	Kind           ProviderKind
	IsAvailable    bool
	Specialization map[string]string
}

// ProviderRepository define operaciones sobre perfiles de proveedor.
//
// IsAvailable lo mutan: (a) el sweeper cuando la suscripción venció,
// (b) el flujo de renovación (forza true), (c) el gate autoritativo como
// escritura defensiva al detectar drift.
type ProviderRepository interface {
	// Get lee el perfil de un owner. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, ownerID string) (*ProviderProfile, error)

	// SetAvailability escribe el flag de disponibilidad (fila única).
	SetAvailability(ctx context.Context, ownerID string, available bool) error

	// DemoteLapsed fuerza IsAvailable=false para todo proveedor cuya
	// suscripción venció antes de now y que sigue marcado disponible.
	// Es un batch de un solo commit; retorna los owners demovidos.
	DemoteLapsed(ctx context.Context, now time.Time) ([]string, error)
}
