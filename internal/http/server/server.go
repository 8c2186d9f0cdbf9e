// Package server encapsula el ciclo de vida del http.Server: arranque,
// drenado y shutdown atado al contexto del proceso.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chambadev/chamba/internal/observability/logger"
)

const shutdownGrace = 10 * time.Second

// Server es el servidor HTTP del servicio.
type Server struct {
	srv *http.Server
}

// New crea el servidor con timeouts de producción.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run escucha hasta que el contexto se cancele y después drena conexiones
// vivas dentro de la ventana de gracia. Retorna nil en shutdown limpio.
func (s *Server) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("http.server"))

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return s.srv.Close()
	}
	return nil
}
