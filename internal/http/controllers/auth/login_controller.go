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

const maxLoginBodySize = 8 * 1024 // 8KB

// LoginController handles POST /v1/auth/login
type LoginController struct {
	service authsvc.LoginService
	issuer  *token.Issuer
}

// NewLoginController creates a new controller for login.
func NewLoginController(service authsvc.LoginService, issuer *token.Issuer) *LoginController {
	return &LoginController{service: service, issuer: issuer}
}

// Login handles POST /v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	defer r.Body.Close()

	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email y password son obligatorios"))
		return
	}

	result, err := c.service.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeLoginError(w, err)
		return
	}

	writeTokenPair(w, result.Pair, c.issuer)
}

func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrBadLogin):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, authsvc.ErrUnavailable):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

// writeTokenPair serializa un par emitido con los headers de no-cacheo que
// corresponden a credenciales.
func writeTokenPair(w http.ResponseWriter, pair *token.Pair, issuer *token.Issuer) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(issuer.AccessTTL().Seconds()),
		RefreshToken: pair.RefreshToken,
	})
}
