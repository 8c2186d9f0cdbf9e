// Package notify avisa a los proveedores sobre eventos de su suscripción.
//
// El delivery real (chat, push, etc.) es un colaborador externo; acá sólo
// vive la interfaz y el sender SMTP que usa el sweeper.
package notify

import (
	"context"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// Notifier define las notificaciones que emite el core.
type Notifier interface {
	// SubscriptionLapsed avisa que la suscripción venció y el perfil quedó
	// no disponible.
	SubscriptionLapsed(ctx context.Context, p *repository.Principal) error
}

// Noop descarta todas las notificaciones. Default en dev y tests.
type Noop struct{}

func (Noop) SubscriptionLapsed(ctx context.Context, p *repository.Principal) error { return nil }
