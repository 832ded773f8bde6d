package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shotforge/internal/database"
	"shotforge/internal/filesystem"
	"shotforge/internal/handlers"
	"shotforge/internal/logging"
	"shotforge/internal/memory"
	"shotforge/internal/metrics"
	"shotforge/internal/middleware"
	"shotforge/internal/pipeline"
	"shotforge/internal/startup"
	"shotforge/internal/watcher"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout        = 30 * time.Second
	sessionCleanupInterval = time.Hour
	statsInterval          = time.Minute
)

func main() {
	startTime := time.Now()

	startup.LoadEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	if err := config.RequireAPI(); err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"screenshots": config.ScreenshotsDir,
		"outputs":     config.OutputsDir,
		"cache":       config.CacheDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	memory.ConfigureFromEnv()
	monitor := memory.NewMonitor(memory.DefaultConfig())
	build := startup.GetBuildInfo()
	metrics.SetAppInfo(build.Version, build.Commit, build.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	p := buildPipeline(config, db)

	startup.LogWatcherInit(config.ScreenshotsDir, config.PollInterval, config.NotifierEnabled)
	w := watcher.New(config.ScreenshotsDir, p, watcher.Options{
		PollInterval:    config.PollInterval,
		DisableNotifier: !config.NotifierEnabled,
		Hold:            monitor.Paused,
	})
	if err := w.Start(); err != nil {
		startup.LogFatal("Failed to start watcher: %v", err)
	}
	startup.LogWatcherStarted()

	h := handlers.New(db, w, p, config)
	startup.LogThumbnailInit(config.ThumbnailsEnabled)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           buildHandler(h, router, config),
		ReadHeaderTimeout: 15 * time.Second,
		// Manual generation holds the request open for the whole API call.
		WriteTimeout: config.APITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	collector := metrics.NewCollector(h, statsInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if metricsSrv != nil {
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		return monitor.Run(gctx)
	})

	g.Go(func() error {
		return collector.Run(gctx)
	})

	g.Go(func() error {
		cleanSessions(gctx, db)
		return nil
	})

	g.Go(func() error {
		warmThumbnails(gctx, h, config.OutputsDir)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		handleShutdown(ctx, srv, metricsSrv, w, db)
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		ScreenshotsDir:  config.ScreenshotsDir,
		OutputsDir:      config.OutputsDir,
		StartupDuration: time.Since(startTime),
	})

	if err := g.Wait(); err != nil {
		startup.LogFatal("Server error: %v", err)
	}
}

// buildPipeline creates the API clients and the per-file pipeline.
func buildPipeline(config *startup.Config, db *database.Database) *pipeline.Pipeline {
	p, clients, err := pipeline.FromConfig(config, db, false)
	if err != nil {
		startup.LogFatal("Failed to create pipeline: %v", err)
	}
	startup.LogClientsInit(clients.VisionModel, clients.GenerationModel, clients.VisionErr)
	return p
}

// buildHandler wraps the router: auth innermost, then metrics, logging and
// compression.
func buildHandler(h *handlers.Handlers, router *mux.Router, config *startup.Config) http.Handler {
	var handler http.Handler = h.AuthMiddleware(router)

	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogFileRequests = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")
	auth.HandleFunc("/keepalive", h.Keepalive).Methods("POST")
	auth.HandleFunc("/password", h.ChangePassword).Methods("POST")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/gallery", h.ListGallery).Methods("GET")
	api.HandleFunc("/screenshots", h.ListScreenshots).Methods("GET")
	api.HandleFunc("/file/{name}", h.GetFile).Methods("GET")
	api.HandleFunc("/file/{name}", h.DeleteFile).Methods("DELETE")
	api.HandleFunc("/thumbnail/{name}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/image-info/{name}", h.GetImageInfo).Methods("GET")
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/generate", h.Generate).Methods("POST")
	api.HandleFunc("/prompts", h.ListPrompts).Methods("GET")
	api.HandleFunc("/sizes", h.ListSizes).Methods("GET")
	api.HandleFunc("/history", h.History).Methods("GET")
	api.HandleFunc("/stats", h.Stats).Methods("GET")
	api.HandleFunc("/scan", h.TriggerScan).Methods("POST")

	return r
}

func cleanSessions(ctx context.Context, db *database.Database) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CleanExpiredSessions(ctx)
			if err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			} else if n > 0 {
				logging.Debug("Removed %d expired sessions", n)
			}
			db.UpdateDBMetrics()
		}
	}
}

func warmThumbnails(ctx context.Context, h *handlers.Handlers, outputsDir string) {
	thumbs := h.Thumbnails()
	if !thumbs.IsEnabled() {
		return
	}

	files, err := filesystem.ListImages(outputsDir)
	if err != nil {
		logging.Warn("Thumbnail warm-up skipped: %v", err)
		return
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	n, err := thumbs.Warm(ctx, paths)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn("Thumbnail warm-up stopped: %v", err)
	}
	if n > 0 {
		logging.Info("Generated %d thumbnails", n)
	}
}

// handleShutdown stops the watcher first so the file in flight finishes
// before the servers and database go away.
func handleShutdown(sigCtx context.Context, srv, metricsSrv *http.Server, w *watcher.Watcher, db *database.Database) {
	reason := "server error"
	if sigCtx.Err() != nil {
		reason = "signal"
	}
	startup.LogShutdownInitiated(reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping watcher")
	w.Stop()
	startup.LogShutdownStepComplete("Watcher stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
	logging.CloseFile()
}
