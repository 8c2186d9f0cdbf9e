// Package metrics define los collectors Prometheus del core. Viven en un
// paquete standalone para evitar ciclos de import entre services y HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chamba_rotations_total",
		Help: "Rotaciones de refresh credential completadas",
	})

	RotationRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chamba_rotation_rejected_total",
		Help: "Rotaciones rechazadas, por reason code",
	}, []string{"reason"})

	GateDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chamba_gate_decisions_total",
		Help: "Decisiones del subscription gate, por modo y resultado",
	}, []string{"mode", "decision"})

	SweepRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chamba_sweep_runs_total",
		Help: "Iteraciones del expiry sweeper, por resultado",
	}, []string{"status"})

	SweepDemotionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chamba_sweep_demotions_total",
		Help: "Proveedores demovidos (IsAvailable=false) por el sweeper",
	})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chamba_sweep_duration_seconds",
		Help:    "Duración de cada pasada del sweeper",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chamba_logins_total",
		Help: "Intentos de login, por resultado",
	}, []string{"status"})
)

// Register registra todos los collectors en el registry dado (default si es
// nil). Tolera registros duplicados para que los tests puedan llamarlo
// más de una vez.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		RotationsTotal,
		RotationRejectedTotal,
		GateDecisionsTotal,
		SweepRunsTotal,
		SweepDemotionsTotal,
		SweepDuration,
		LoginsTotal,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
