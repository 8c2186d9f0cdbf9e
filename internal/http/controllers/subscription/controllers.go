// Package subscription contiene los controllers de consulta y renovación de
// suscripciones de proveedores.
package subscription

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/chambadev/chamba/internal/domain/repository"
	dto "github.com/chambadev/chamba/internal/http/dto/subscription"
	httperrors "github.com/chambadev/chamba/internal/http/errors"
	"github.com/chambadev/chamba/internal/http/middlewares"
	"github.com/chambadev/chamba/internal/observability/logger"
)

const (
	contentTypeJSON  = "application/json; charset=utf-8"
	maxRenewBodySize = 4 * 1024
	maxRenewDays     = 365
)

// Controller handles GET /v1/subscription and POST /v1/subscription/renew
type Controller struct {
	subs      repository.SubscriptionRepository
	providers repository.ProviderRepository
	now       func() time.Time
}

// NewController creates the subscription controller.
func NewController(subs repository.SubscriptionRepository, providers repository.ProviderRepository) *Controller {
	return &Controller{subs: subs, providers: providers, now: time.Now}
}

// Status handles GET /v1/subscription. Lectura fresca del store, nunca del
// snapshot del token.
func (c *Controller) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middlewares.GetOwnerID(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	resp := dto.StatusResponse{}
	now := c.now().UTC()

	if sub, err := c.subs.Get(ctx, owner); err == nil {
		resp.Active = sub.IsActive(now)
		resp.StartAt = sub.StartAt.Unix()
		resp.EndAt = sub.EndAt.Unix()
	} else if !repository.IsNotFound(err) {
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	if prov, err := c.providers.Get(ctx, owner); err == nil {
		resp.IsAvailable = prov.IsAvailable
		resp.Kind = string(prov.Kind)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Renew handles POST /v1/subscription/renew. Extiende la suscripción N días
// desde max(now, vencimiento actual) y re-publica la disponibilidad del
// proveedor. Con esto el gate autoritativo permite de inmediato; el modo
// claim converge cuando el cliente rota su par.
func (c *Controller) Renew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Subscription.Renew"))

	owner := middlewares.GetOwnerID(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRenewBodySize)
	defer r.Body.Close()

	var req dto.RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if req.Days <= 0 || req.Days > maxRenewDays {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("days debe estar entre 1 y 365"))
		return
	}

	now := c.now().UTC()
	startAt := now
	base := now
	if sub, err := c.subs.Get(ctx, owner); err == nil {
		startAt = sub.StartAt
		if sub.EndAt.After(base) {
			base = sub.EndAt
		}
	}
	endAt := base.AddDate(0, 0, req.Days)

	if err := c.subs.Renew(ctx, owner, startAt, endAt); err != nil {
		log.Error("renew failed", logger.OwnerID(owner), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	// Best effort: si el perfil no existe todavía, el flag no aplica.
	if err := c.providers.SetAvailability(ctx, owner, true); err != nil && !repository.IsNotFound(err) {
		log.Warn("availability republish failed", logger.OwnerID(owner), logger.Err(err))
	}

	log.Info("subscription renewed", logger.OwnerID(owner), logger.Count(req.Days))
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.RenewResponse{
		StartAt: startAt.Unix(),
		EndAt:   endAt.Unix(),
	})
}
