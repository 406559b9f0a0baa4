package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-librarian/internal/fileops"
	"media-librarian/internal/handlers"
	"media-librarian/internal/logging"
	"media-librarian/internal/middleware"
	"media-librarian/internal/online"
	"media-librarian/internal/startup"
	"media-librarian/internal/state"
	"media-librarian/internal/store"
	"media-librarian/internal/watch"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize stores
	roots, err := store.NewRootStore(config.RootsPath, config.SaveDelay)
	if err != nil {
		logging.Fatal("Failed to load roots store: %v", err)
	}
	metadata, err := store.NewMetadataStore(config.MetadataPath, config.SaveDelay)
	if err != nil {
		logging.Fatal("Failed to load metadata store: %v", err)
	}
	preferences, err := store.NewPreferencesStore(config.PreferencesPath, config.SaveDelay)
	if err != nil {
		logging.Fatal("Failed to load preferences store: %v", err)
	}
	profiles, err := store.NewProfileStore(config.ProfilesPath, config.SaveDelay)
	if err != nil {
		logging.Fatal("Failed to load profiles store: %v", err)
	}
	stores := state.Stores{
		Roots:       roots,
		Metadata:    metadata,
		Preferences: preferences,
		Profiles:    profiles,
	}

	// Initialize file operations and the online pipeline
	ops := fileops.New(config.TrashDir, metadata)
	lib := state.New(stores, ops, online.NewFetcher(nil), online.NewImporter(nil))

	// Initialize handlers
	tasks := state.NewTaskRegistry()
	h := handlers.New(lib, tasks, config)

	// Build the initial snapshot before accepting traffic
	scanStart := time.Now()
	if snap, err := lib.Rescan(context.Background()); err != nil {
		logging.Warn("Initial scan failed: %v", err)
	} else {
		logging.Info("Initial scan complete: %d files in %d directories (%s)",
			snap.FileCount(), len(snap.Directories), time.Since(scanStart).Round(time.Millisecond))
	}
	h.MarkReady()

	// Watch root folders for external changes
	watchCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()
	if config.WatcherEnabled {
		watcher := watch.New(roots.List, func(ctx context.Context) {
			if _, err := lib.Rescan(ctx); err != nil {
				logging.Debug("watcher rescan: %v", err)
			}
		})
		go watcher.Run(watchCtx)
	}

	// Setup router and middleware
	router := setupRouter(h)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Serve Prometheus metrics on a separate port
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

	go handleShutdown(srv, metricsSrv, stores, stopWatcher)

	startup.LogServerStarted(config.Port, config.MetricsPort, config.MetricsEnabled)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Root folders
	api.HandleFunc("/roots", h.ListRoots).Methods("GET")
	api.HandleFunc("/roots", h.AddRoot).Methods("POST")
	api.HandleFunc("/roots/{id}", h.RemoveRoot).Methods("DELETE")
	api.HandleFunc("/rescan", h.Rescan).Methods("POST")

	// Browsing
	api.HandleFunc("/library", h.GetLibrary).Methods("GET")
	api.HandleFunc("/directories/{id}", h.GetDirectory).Methods("GET")
	api.HandleFunc("/directories/{id}/rename", h.RenameDirectory).Methods("POST")
	api.HandleFunc("/directories/{id}", h.DeleteDirectory).Methods("DELETE")
	api.HandleFunc("/items/{id}", h.GetItem).Methods("GET")
	api.HandleFunc("/favorites", h.GetFavorites).Methods("GET")
	api.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods("GET")

	// Metadata
	api.HandleFunc("/items/{id}/favorite", h.SetFavorite).Methods("PUT")
	api.HandleFunc("/items/{id}/hidden", h.SetHidden).Methods("PUT")
	api.HandleFunc("/items/{id}/tags", h.AddTag).Methods("POST")
	api.HandleFunc("/items/{id}/tags", h.SetTags).Methods("PUT")
	api.HandleFunc("/items/{id}/tags/{tag}", h.RemoveTag).Methods("DELETE")

	// File operations
	api.HandleFunc("/items/{id}/rename", h.RenameItem).Methods("POST")
	api.HandleFunc("/items/{id}/move", h.MoveItem).Methods("POST")
	api.HandleFunc("/items/{id}/reorder", h.ReorderItem).Methods("POST")
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods("DELETE")

	// Preferences
	api.HandleFunc("/preferences", h.GetPreferences).Methods("GET")
	api.HandleFunc("/preferences", h.SetPreferences).Methods("PUT")

	// Online imports
	api.HandleFunc("/online/parse", h.ParseSource).Methods("POST")
	api.HandleFunc("/online/imports", h.StartImport).Methods("POST")
	api.HandleFunc("/online/profiles", h.ListProfiles).Methods("GET")
	api.HandleFunc("/online/profiles/{key}", h.DeleteProfile).Methods("DELETE")
	api.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	api.HandleFunc("/tasks/{id}", h.GetTask).Methods("GET")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, stores state.Stores, stopWatcher context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping filesystem watcher")
	stopWatcher()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownStep("Flushing stores")
	for name, flush := range map[string]func() error{
		"roots":       stores.Roots.Flush,
		"metadata":    stores.Metadata.Flush,
		"preferences": stores.Preferences.Flush,
		"profiles":    stores.Profiles.Flush,
	} {
		if err := flush(); err != nil {
			logging.Warn("Failed to flush %s store: %v", name, err)
		}
	}

	startup.LogShutdownComplete()
}
