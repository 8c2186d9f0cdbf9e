// Package sweeper implementa la pasada recurrente que demueve proveedores
// con suscripción vencida.
//
// El enforcement primario es el gate autoritativo; el sweep existe para
// corregir a los principals que nunca vuelven a hacer una llamada gated.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/metrics"
	"github.com/chambadev/chamba/internal/notify"
	"github.com/chambadev/chamba/internal/observability/logger"
)

// Deps contiene las dependencias del sweeper.
type Deps struct {
	Providers  repository.ProviderRepository
	Principals repository.PrincipalRepository

	// Notifier avisa a los proveedores demovidos. Opcional y best effort:
	// un fallo de notificación jamás falla el sweep.
	Notifier notify.Notifier

	// Clock se inyecta en tests. Default: reloj del sistema.
	Clock Clock

	// BoundaryHour es la hora local (0-23) del boundary diario. Default 0
	// (medianoche local).
	BoundaryHour int

	// Location para el cálculo del boundary. Default time.Local.
	Location *time.Location
}

// Sweeper es el loop de barrido. Una sola instancia long-lived por proceso,
// independiente del tráfico de requests.
type Sweeper struct {
	deps Deps
}

// New crea el sweeper.
func New(deps Deps) *Sweeper {
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Sweeper{deps: deps}
}

// Run corre el loop hasta que el contexto se cancele. La duración del sleep
// se recomputa en cada iteración desde la hora actual, así ajustes de
// reloj/DST no corren el schedule. Retorna nil al cancelarse.
func (s *Sweeper) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("sweeper"))

	for {
		now := s.deps.Clock.Now().In(s.deps.Location)
		next := s.nextBoundary(now)
		log.Debug("sweeper sleeping", logger.Any("until", next))

		select {
		case <-ctx.Done():
			return nil
		case <-s.deps.Clock.After(next.Sub(now)):
		}

		// Un sweep fallido no tumba el loop: se loguea y se reintenta en el
		// próximo boundary.
		if _, err := s.SweepOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("sweep iteration failed", logger.Err(err))
		}
	}
}

// nextBoundary retorna la próxima ocurrencia de la hora boundary local
// estrictamente posterior a now.
func (s *Sweeper) nextBoundary(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(),
		s.deps.BoundaryHour, 0, 0, 0, s.deps.Location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// SweepOnce ejecuta una pasada: un solo batch commit que fuerza
// IsAvailable=false para todo proveedor con suscripción vencida. Retorna la
// cantidad de proveedores demovidos.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	log := logger.From(ctx).With(logger.Component("sweeper"), logger.Op("SweepOnce"))
	start := s.deps.Clock.Now()

	demoted, err := s.deps.Providers.DemoteLapsed(ctx, start.UTC())
	metrics.SweepDuration.Observe(s.deps.Clock.Now().Sub(start).Seconds())
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	metrics.SweepDemotionsTotal.Add(float64(len(demoted)))
	if len(demoted) > 0 {
		log.Info("providers demoted", logger.Count(len(demoted)))
		s.notifyDemoted(ctx, demoted, log)
	}
	return len(demoted), nil
}

func (s *Sweeper) notifyDemoted(ctx context.Context, owners []string, log *zap.Logger) {
	if s.deps.Notifier == nil || s.deps.Principals == nil {
		return
	}
	for _, owner := range owners {
		p, err := s.deps.Principals.GetByID(ctx, owner)
		if err != nil {
			continue
		}
		if err := s.deps.Notifier.SubscriptionLapsed(ctx, p); err != nil {
			log.Warn("lapse notification failed",
				logger.OwnerID(owner), logger.Err(err))
		}
	}
}
