package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photofind/internal/activity"
	"photofind/internal/cache"
	"photofind/internal/handlers"
	"photofind/internal/importer"
	"photofind/internal/logging"
	"photofind/internal/media"
	"photofind/internal/memory"
	"photofind/internal/metrics"
	"photofind/internal/middleware"
	"photofind/internal/registry"
	"photofind/internal/scheduler"
	"photofind/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	startup.LogToolAvailability()

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, oversized images will use the fallback decoder: %v", err)
	}
	defer media.ShutdownVips()

	// Registry
	registryStart := time.Now()
	reg, err := registry.Open(config.RegistryPath)
	if err != nil {
		startup.LogFatal("Failed to open registry: %v", err)
	}
	defer reg.Close()
	startup.LogRegistryInit(time.Since(registryStart))

	// Derivative caches
	thumbnails, err := cache.NewStore(config.ThumbnailDir)
	if err != nil {
		startup.LogFatal("Failed to open thumbnail cache: %v", err)
	}
	previews, err := cache.NewStore(config.PreviewDir)
	if err != nil {
		startup.LogFatal("Failed to open preview cache: %v", err)
	}
	generator := media.NewGenerator(thumbnails, previews)

	// Metrics
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.GoVersion)
	}

	// Sidecar importer: one run at startup, then on the cron interval.
	startup.LogImporterInit(config.ScanInterval)
	imp := importer.New(reg, config.ScanDir)
	go imp.Run()

	importCron := cron.New()
	if _, err := importCron.AddFunc("@every "+config.ScanInterval.String(), func() { imp.Run() }); err != nil {
		startup.LogFatal("Failed to schedule sidecar imports: %v", err)
	}
	importCron.Start()

	// Background derivative scheduler, paused by interactive traffic.
	tracker := &activity.Tracker{}
	sched := scheduler.New(scheduler.Config{
		Paths:    reg,
		Generate: generator.Generate,
		Exists:   generator.Exists,
		Activity: tracker,
	})
	sched.Start()

	// HTTP API
	h := handlers.New(reg, generator, config.ScanDir, config.VideoPreviewDir, sched.ThumbnailsExhausted)

	router := mux.NewRouter()
	h.Register(router, middleware.Activity(tracker))
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogDerivatives = config.LogDerivatives
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, sched, importCron)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, sched *scheduler.Scheduler, importCron *cron.Cron) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping sidecar import schedule")
	cronCtx := importCron.Stop()
	<-cronCtx.Done()
	startup.LogShutdownStepComplete("Import schedule stopped")

	startup.LogShutdownStep("Stopping derivative scheduler")
	sched.Stop()
	startup.LogShutdownStepComplete("Derivative scheduler stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
