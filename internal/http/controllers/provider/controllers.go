// Package provider contiene los controllers del perfil de proveedor.
//
// Son la superficie gated del servicio: las lecturas pasan por el gate en
// modo claim (snapshot de la credencial, cero storage) y las mutaciones por
// el modo autoritativo (lectura fresca del store).
package provider

import (
	"encoding/json"
	"net/http"

	"github.com/chambadev/chamba/internal/domain/repository"
	httperrors "github.com/chambadev/chamba/internal/http/errors"
	"github.com/chambadev/chamba/internal/http/middlewares"
	"github.com/chambadev/chamba/internal/observability/logger"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ProfileResponse is the response for GET /v1/provider/profile
type ProfileResponse struct {
	OwnerID        string            `json:"owner_id"`
	Kind           string            `json:"kind"`
	IsAvailable    bool              `json:"is_available"`
	Specialization map[string]string `json:"specialization,omitempty"`
}

// AvailabilityRequest represents the request body for PUT /v1/provider/availability
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// Controller handles the provider profile endpoints.
type Controller struct {
	providers repository.ProviderRepository
}

// NewController creates the provider controller.
func NewController(providers repository.ProviderRepository) *Controller {
	return &Controller{providers: providers}
}

// Profile handles GET /v1/provider/profile
func (c *Controller) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middlewares.GetOwnerID(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	prov, err := c.providers.Get(ctx, owner)
	switch {
	case repository.IsNotFound(err):
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	case err != nil:
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ProfileResponse{
		OwnerID:        prov.OwnerID,
		Kind:           string(prov.Kind),
		IsAvailable:    prov.IsAvailable,
		Specialization: prov.Specialization,
	})
}

// SetAvailability handles PUT /v1/provider/availability. Sólo llega acá con
// suscripción activa (gate autoritativo en el router).
func (c *Controller) SetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Provider.SetAvailability"))

	owner := middlewares.GetOwnerID(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	err := c.providers.SetAvailability(ctx, owner, req.Available)
	switch {
	case repository.IsNotFound(err):
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	case err != nil:
		log.Error("availability update failed", logger.OwnerID(owner), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
