// Package token implementa el codec y el issuer de credenciales firmadas.
//
// Hay dos clases de credencial: access (corta, autoriza requests) y refresh
// (larga, sólo sirve para rotar). Cada clase firma con su propio secreto y
// lleva la clase embebida en el payload, así una credencial nunca es
// intercambiable con la otra.
package token

import (
	"time"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// Class es la clase de credencial.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
)

// Claim keys del wire format. Mapa plano string-keyed.
const (
	claimID         = "jti"
	claimSubject    = "sub"
	claimRole       = "role"
	claimClass      = "credentialClass"
	claimIssuedAt   = "iat"
	claimExpiresAt  = "exp"
	claimSubExpires = "subscriptionExpiresAt"
)

// Claims es el claim set de una credencial decodificada.
type Claims struct {
	// ID es el jti de la credencial, único por emisión. Sin él, dos
	// credenciales del mismo principal dentro del mismo segundo serializan
	// byte-idéntico y colisionan por hash en el refresh record store.
	ID        string
	Subject   string
	Role      repository.Role
	Class     Class
	IssuedAt  time.Time
	ExpiresAt time.Time

	// SubscriptionExpiresAt es el snapshot del vencimiento de la suscripción
	// al momento de emisión. Sólo viaja en credenciales access; una credencial
	// refresh vive más que cualquier estado de suscripción y jamás debe
	// cargarlo.
	SubscriptionExpiresAt *time.Time
}
