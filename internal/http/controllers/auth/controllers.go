// Package auth contiene los controllers HTTP del ciclo de sesión: login,
// refresh (rotación), logout, logout-all y me.
package auth

import (
	authsvc "github.com/chambadev/chamba/internal/auth"
	"github.com/chambadev/chamba/internal/token"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Controllers agrupa los controllers del ciclo de sesión para el router.
type Controllers struct {
	Login   *LoginController
	Refresh *RefreshController
	Logout  *LogoutController
	Me      *MeController
}

// Deps contiene los servicios que consumen los controllers.
type Deps struct {
	Login    authsvc.LoginService
	Rotation authsvc.RotationService
	Logout   authsvc.LogoutService
	Issuer   *token.Issuer
}

// NewControllers construye el bundle.
func NewControllers(deps Deps) *Controllers {
	return &Controllers{
		Login:   NewLoginController(deps.Login, deps.Issuer),
		Refresh: NewRefreshController(deps.Rotation, deps.Issuer),
		Logout:  NewLogoutController(deps.Logout),
		Me:      NewMeController(),
	}
}
