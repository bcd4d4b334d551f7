package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/api"
	"github.com/AbdulWasayUl/country-currency-api/internal/channels"
	"github.com/AbdulWasayUl/country-currency-api/internal/config"
	"github.com/AbdulWasayUl/country-currency-api/internal/db"
	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/AbdulWasayUl/country-currency-api/internal/scheduler"
	"github.com/AbdulWasayUl/country-currency-api/internal/server"
	"github.com/AbdulWasayUl/country-currency-api/internal/summary"
	"github.com/AbdulWasayUl/country-currency-api/internal/workpool"
	"github.com/AbdulWasayUl/country-currency-api/services/country"
	"github.com/AbdulWasayUl/country-currency-api/services/exchange"
	"github.com/AbdulWasayUl/country-currency-api/services/refresh"
	"github.com/gin-gonic/gin"
)

func main() {
	logger.Init()
	cfg := config.Load()

	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = logger.Writer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	client, err := db.ConnectMongoDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := db.DisconnectMongoDB(context.Background(), client); err != nil {
			logger.Error("Error disconnecting MongoDB: %v", err)
		}
	}()

	if err := db.RunMigrations(ctx, client, cfg); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := db.NewCountryRepository(client, cfg)

	chans := channels.New()
	wp := workpool.New(chans, cfg.WorkerCount)
	wp.Start(ctx)

	httpClient := api.NewClient()
	refreshSvc := refresh.NewService(
		country.NewService(cfg, httpClient),
		exchange.NewService(cfg, httpClient),
		repo,
		chans,
	)

	renderer := summary.NewRenderer(repo, cfg.SummaryImagePath)
	refreshSvc.AddPostCommitHook(refresh.PostCommitHook{Name: "summary-image", Run: renderer.Render})

	jobs := []scheduler.SchedulableService{refreshSvc}

	var sch *scheduler.Scheduler
	if cfg.RefreshIntervalMinutes > 0 || cfg.RefreshOnStartup {
		sch, err = scheduler.New()
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
	}

	if cfg.RefreshOnStartup {
		go sch.RunImmediateJob(ctx, jobs)
	}

	if cfg.RefreshIntervalMinutes > 0 {
		if err := sch.StartJob(ctx, cfg.RefreshIntervalMinutes, jobs); err != nil {
			log.Fatalf("Failed to start scheduler job: %v", err)
		}
		logger.Info("Scheduled refresh every %d minute(s).", cfg.RefreshIntervalMinutes)
	}

	srv := server.New(cfg.HTTPPort, server.NewHandler(refreshSvc, repo, renderer.Path()))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("HTTP server stopped: %v", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("Received interrupt signal. Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error: %v", err)
	}

	if sch != nil {
		sch.Stop()
	}
	wp.Stop()

	logger.Info("Waiting for pending worker jobs to finish...")
	chans.WG.Wait()
	logger.Info("All worker jobs finished. Shutdown complete.")
}
