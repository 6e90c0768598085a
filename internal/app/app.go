package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"platereader/internal/config"
	"platereader/internal/logger"
	"platereader/internal/repository/sqlite"
	"platereader/internal/routes"
	"platereader/internal/services"
	"platereader/internal/services/pipeline"
	"platereader/internal/services/websocket"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	db        *sqlite.DB
	plates    *sqlite.PlateRepository
	runs      *sqlite.RunRepository
	detectors Detectors
	pipeline  *pipeline.Pipeline
	hub       *websocket.HubService
	manager   *services.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, err
	}
	plates := sqlite.NewPlateRepository(db)
	runs := sqlite.NewRunRepository(db)

	hub := websocket.NewHubService(256, log)

	p, detectors, err := BuildPipeline(cfg, log, nil, pipeline.NewRepositoryRecorder(plates), hub)
	if err != nil {
		db.Close()
		log.Close()
		return nil, err
	}

	mng := services.NewManager(p, runs, hub, cfg, log)

	return &App{
		config:    cfg,
		logger:    log,
		db:        db,
		plates:    plates,
		runs:      runs,
		detectors: detectors,
		pipeline:  p,
		hub:       hub,
		manager:   mng,
	}, nil
}

// Run serves the results API until SIGINT or SIGTERM.
func (a *App) Run() error {
	defer a.Close()

	// Start background services
	go a.hub.Run()

	// Setup routes
	router := routes.SetupRoutes(routes.Dependencies{
		Config:  a.config,
		Logger:  a.logger,
		Manager: a.manager,
		Plates:  a.plates,
		Runs:    a.runs,
		Stages:  a.pipeline.Stages(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	a.logger.Info("Plate reader server on http://localhost:%d", a.config.Port)
	a.logger.Info("Raw images: %s, results: %s", a.config.RawDirectory, a.config.CharDirectory)
	a.logger.Info("Character backend: %s", a.config.CharBackend)
	if a.config.Password == "" {
		a.logger.Warning("PASSWORD is empty, the dashboard is not protected")
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Close stops the worker and releases models, database and log files.
func (a *App) Close() {
	a.manager.Stop()
	a.hub.Stop()
	if err := a.detectors.Close(); err != nil {
		a.logger.Error("Failed to release models: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database: %v", err)
	}
	a.logger.Close()
}
