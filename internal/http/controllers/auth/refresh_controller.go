package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/chambadev/chamba/internal/auth"
	dto "github.com/chambadev/chamba/internal/http/dto/auth"
	httperrors "github.com/chambadev/chamba/internal/http/errors"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/token"
)

const maxRefreshBodySize = 8 * 1024 // 8KB

// RefreshController handles POST /v1/auth/refresh
type RefreshController struct {
	service authsvc.RotationService
	issuer  *token.Issuer
}

// NewRefreshController creates a new controller for refresh.
func NewRefreshController(service authsvc.RotationService, issuer *token.Issuer) *RefreshController {
	return &RefreshController{service: service, issuer: issuer}
}

// Refresh handles POST /v1/auth/refresh
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	r.Body = http.MaxBytesReader(w, r.Body, maxRefreshBodySize)
	defer r.Body.Close()

	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token es obligatorio"))
		return
	}

	pair, err := c.service.Rotate(ctx, req.RefreshToken)
	if err != nil {
		log.Debug("refresh rejected",
			logger.Reason(string(authsvc.ReasonOf(err))), logger.Err(err))
		writeRefreshError(w, err)
		return
	}

	writeTokenPair(w, pair, c.issuer)
}

func writeRefreshError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidCredential):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithDetail("refresh credential inválida o expirada"))
	case errors.Is(err, authsvc.ErrUnknownOrRevoked):
		// Ausente, revocado o vencido: misma respuesta, sin señal de replay.
		httperrors.WriteError(w, httperrors.ErrSessionRevoked)
	case errors.Is(err, authsvc.ErrUnavailable):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
