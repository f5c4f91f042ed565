package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/handlers"
	"gitlab.com/renderfarm.net/internal/handlers/jobs"
	"gitlab.com/renderfarm.net/internal/handlers/monitors"
	"gitlab.com/renderfarm.net/internal/handlers/renders"
	"gitlab.com/renderfarm.net/internal/handlers/system"
)

type ServiceProvider struct {
	engine handlers.Engine
	live   renders.LiveRenders
	system system.Dependencies
}

func NewServiceProvider(engine handlers.Engine, live renders.LiveRenders, deps system.Dependencies) *ServiceProvider {
	return &ServiceProvider{
		engine: engine,
		live:   live,
		system: deps,
	}
}

type Server struct {
	router          *mux.Router
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	logger          primary.Logger
	srv             *http.Server
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()
	mw := handlers.New(s.logger)
	r.Use(mw.RecoverMiddleware, mw.LoggingMiddleware)

	renders.NewRenderHandler(s.ServiceProvider.engine, s.ServiceProvider.live, s.logger).RegisterRoutes(r)
	monitors.NewMonitorHandler(s.ServiceProvider.engine, s.logger).RegisterRoutes(r)
	jobs.NewJobHandler(s.ServiceProvider.engine, s.logger).RegisterRoutes(r)
	system.NewHandler(s.ServiceProvider.system).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router = r
	return nil
}

// Handler returns the router, Init must have been called
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	// Set up server
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", listener.Addr().String(), "service", s.ServiceName)
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
