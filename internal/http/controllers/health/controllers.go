// Package health expone los endpoints de liveness y readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger abstrae el chequeo de conectividad del store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller handles GET /healthz and GET /readyz
type Controller struct {
	store Pinger
}

// NewController creates the health controller.
func NewController(store Pinger) *Controller {
	return &Controller{store: store}
}

// Healthz responde 200 mientras el proceso viva.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readyz verifica el storage con un timeout corto.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "storage": err.Error()})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
