package auth

import (
	"encoding/json"
	"net/http"

	dto "github.com/chambadev/chamba/internal/http/dto/auth"
	httperrors "github.com/chambadev/chamba/internal/http/errors"
	"github.com/chambadev/chamba/internal/http/middlewares"
)

// MeController handles GET /v1/me
type MeController struct{}

// NewMeController creates a new controller for me.
func NewMeController() *MeController {
	return &MeController{}
}

// Me responde con las claims verificadas del token presentado. No toca
// storage: es un espejo de lo que el cliente ya firmó.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	claims := middlewares.GetClaims(r.Context())
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	resp := dto.MeResponse{
		Sub:  claims.Subject,
		Role: string(claims.Role),
		Exp:  claims.ExpiresAt.Unix(),
	}
	if claims.SubscriptionExpiresAt != nil {
		v := claims.SubscriptionExpiresAt.Unix()
		resp.SubscriptionExpiresAt = &v
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
