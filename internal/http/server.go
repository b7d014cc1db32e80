// README: API server; owns the listener and drains in-flight streams on shutdown.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wondura/internal/logger"
)

const shutdownGrace = 30 * time.Second

type Server struct {
	srv *http.Server
	log logger.Logger
}

// NewServer leaves WriteTimeout unset so event streams can stay open while cards generate.
func NewServer(addr string, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", map[string]interface{}{"addr": s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
