package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/de-tools/tlf-atlas/pkg/handlers/plan"
	runhandlers "github.com/de-tools/tlf-atlas/pkg/handlers/run"
	tlfmiddleware "github.com/de-tools/tlf-atlas/pkg/server/middleware"
	"github.com/de-tools/tlf-atlas/pkg/services/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Study    string
	Plans    handlers.Service
	Runs     runhandlers.Store
	Workflow workflow.Controller
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config.Dependencies)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: timeout,
	}
}

// ConfigureRouter mounts the plan and run API under /api/v1. Run routes are only
// mounted when a run store is configured.
func ConfigureRouter(logger zerolog.Logger, deps Dependencies) *chi.Mux {
	planHandler := handlers.NewHandler(deps.Plans)

	router := chi.NewRouter()

	router.Use(tlfmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", planHandler.ListPlans)
		r.Get("/plans/{id}", planHandler.GetPlan)
		r.Get("/plans/{id}/ard", planHandler.GetARD)
		r.Get("/plans/{id}/display", planHandler.GetDisplay)

		if deps.Runs != nil && deps.Workflow != nil {
			runHandler := runhandlers.NewHandler(deps.Study, deps.Plans, deps.Runs, deps.Workflow)
			r.Get("/runs", runHandler.ListRuns)
			r.Post("/runs", runHandler.StartRun)
			r.Get("/runs/{id}", runHandler.GetRun)
			r.Delete("/runs/{id}", runHandler.CancelRun)
		}
	})

	return router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
