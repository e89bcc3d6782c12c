package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pipeline_tracker/internal/config"
	"pipeline_tracker/internal/controllers"
	"pipeline_tracker/internal/logger"
	"pipeline_tracker/internal/middleware"
	"pipeline_tracker/internal/repository"
	"pipeline_tracker/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	// Initialize structured logging to file
	logger.Setup(cfg.LogFile, cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	// Connect to the database
	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Database unavailable")
	}

	routeRepo := repository.NewRouteRepository(db)
	jointRepo := repository.NewJointRepository(db)

	if cfg.SeedFixtures {
		if err := routeRepo.SeedFixtures(context.Background()); err != nil {
			logrus.WithError(err).Fatal("Failed to seed route fixtures")
		}
	}

	routeController := controllers.NewRouteController(routeRepo)
	r := routes.SetupRouter(routes.Handlers{
		Routes:    routeController,
		Stringing: controllers.NewStringingController(jointRepo),
		Fixes:     controllers.NewFixController(routeController, controllers.NewFixHub()),
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           middleware.EnableCORS(middleware.NewOriginPolicy(cfg.CORSAllowedOrigins), r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	logrus.Info("Server exited")
}
