// Package auth implementa el ciclo de vida de sesiones: login, rotación de
// refresh credentials, logout y el subscription gate de dos niveles.
package auth

import "errors"

// Errores terminales del ciclo de autenticación. Ninguno se reintenta
// internamente (salvo ErrUnavailable, que el componente que llama puede
// reintentar una vez): todos fuerzan al caller a re-autenticarse o a
// renovar su suscripción.
var (
	// ErrInvalidCredential: firma inválida, formato inválido o clase
	// equivocada. Cubre cualquier fallo del codec, incluida la expiración de
	// la credencial presentada en una rotación.
	ErrInvalidCredential = errors.New("auth: invalid credential")

	// ErrExpired: la credencial access venció. El cliente debe rotar.
	ErrExpired = errors.New("auth: credential expired")

	// ErrUnknownOrRevoked: el refresh record no existe, fue revocado o
	// venció. Las tres condiciones se reportan igual a propósito, para no
	// filtrar señal de detección de replay.
	ErrUnknownOrRevoked = errors.New("auth: unknown or revoked refresh credential")

	// ErrSubscriptionInvalid: el gate autoritativo denegó la operación.
	ErrSubscriptionInvalid = errors.New("auth: subscription invalid")

	// ErrUnavailable: el storage no respondió dentro del timeout. Nunca se
	// degrada silenciosamente a "permitido".
	ErrUnavailable = errors.New("auth: storage unavailable")

	// ErrBadLogin: email o password incorrectos.
	ErrBadLogin = errors.New("auth: invalid email or password")
)

// Reason es el código estable y enumerable que viaja al cliente para que
// pueda distinguir "logueate de nuevo" de "tu suscripción venció" de
// "reintentá en un rato".
type Reason string

const (
	ReasonInvalidCredential   Reason = "invalid_credential"
	ReasonExpired             Reason = "expired"
	ReasonUnknownOrRevoked    Reason = "unknown_or_revoked"
	ReasonSubscriptionInvalid Reason = "subscription_invalid"
	ReasonUnavailable         Reason = "unavailable"
	ReasonBadLogin            Reason = "bad_login"
)

// ReasonOf mapea un error del paquete a su reason code. Retorna "" si el
// error no pertenece a la taxonomía.
func ReasonOf(err error) Reason {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return ReasonInvalidCredential
	case errors.Is(err, ErrExpired):
		return ReasonExpired
	case errors.Is(err, ErrUnknownOrRevoked):
		return ReasonUnknownOrRevoked
	case errors.Is(err, ErrSubscriptionInvalid):
		return ReasonSubscriptionInvalid
	case errors.Is(err, ErrUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrBadLogin):
		return ReasonBadLogin
	}
	return ""
}
