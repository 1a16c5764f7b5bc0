package api

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Logger defines the logging surface of the server.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=api
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Server serves read queries over the backends. It never touches the ingestion path.
type Server struct {
	cfg      Config
	services Services
	logger   Logger
	mux      *http.ServeMux
	srv      *http.Server
}

// NewServer creates the server and registers its routes.
func NewServer(cfg Config, svc Services, logger Logger) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:      cfg,
		services: svc,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.RegisterHTTPHandlers(s.mux)
	s.srv = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.logger.Info("query API listening", nil, map[string]interface{}{"address": ln.Addr().String()})

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("query API stopped unexpectedly", err, nil)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for running ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
