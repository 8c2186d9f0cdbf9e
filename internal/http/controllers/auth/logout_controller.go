package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/chambadev/chamba/internal/auth"
	dto "github.com/chambadev/chamba/internal/http/dto/auth"
	httperrors "github.com/chambadev/chamba/internal/http/errors"
	"github.com/chambadev/chamba/internal/http/middlewares"
	"github.com/chambadev/chamba/internal/observability/logger"
)

// LogoutController handles POST /v1/auth/logout and POST /v1/auth/logout-all
type LogoutController struct {
	service authsvc.LogoutService
}

// NewLogoutController creates a new controller for logout.
func NewLogoutController(service authsvc.LogoutService) *LogoutController {
	return &LogoutController{service: service}
}

// Logout handles POST /v1/auth/logout. Idempotente: revocar una credencial
// ya revocada o desconocida también responde 204.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	r.Body = http.MaxBytesReader(w, r.Body, maxRefreshBodySize)
	defer r.Body.Close()

	var req dto.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token es obligatorio"))
		return
	}

	err := c.service.Logout(ctx, req.RefreshToken)
	switch {
	case err == nil, errors.Is(err, authsvc.ErrUnknownOrRevoked):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, authsvc.ErrUnavailable):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	default:
		log.Error("logout failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

// LogoutAll handles POST /v1/auth/logout-all. Requiere autenticación: revoca
// todas las sesiones del principal del token presentado.
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.LogoutAll"))

	owner := middlewares.GetOwnerID(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	n, err := c.service.LogoutAll(ctx, owner)
	if err != nil {
		if errors.Is(err, authsvc.ErrUnavailable) {
			httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
			return
		}
		log.Error("logout-all failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.LogoutAllResponse{Revoked: n})
}
