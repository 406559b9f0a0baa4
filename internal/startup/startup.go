package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"

	"media-librarian/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	DataDir     string
	CacheDir    string
	Port        string
	MetricsPort string

	SaveDelay       time.Duration
	WatcherEnabled  bool
	MetricsEnabled  bool
	LogHealthChecks bool

	// Derived paths
	MetadataPath    string
	PreferencesPath string
	ProfilesPath    string
	RootsPath       string
	TrashDir        string
	ThumbnailDir    string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// LoadConfig loads configuration from an optional config.yaml plus
// environment variables (env wins). Values are logged the way operators
// expect to read them at startup.
func LoadConfig() (*Config, error) {
	printBanner()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/media-librarian")
	v.SetEnvPrefix("LIBRARIAN")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "/data")
	v.SetDefault("cache_dir", "/cache")
	v.SetDefault("port", "8080")
	v.SetDefault("metrics_port", "9090")
	v.SetDefault("save_delay", "150ms")
	v.SetDefault("watcher_enabled", true)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("log_health_checks", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		logging.Debug("no config file found, using environment and defaults")
	} else {
		logging.Info("loaded configuration from %s", v.ConfigFileUsed())
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	dataDir, err := filepath.Abs(v.GetString("data_dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cacheDir, err := filepath.Abs(v.GetString("cache_dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}

	saveDelay := v.GetDuration("save_delay")
	if saveDelay <= 0 {
		logging.Warn("  Invalid save_delay, using default: 150ms")
		saveDelay = 150 * time.Millisecond
	}

	config := &Config{
		DataDir:         dataDir,
		CacheDir:        cacheDir,
		Port:            v.GetString("port"),
		MetricsPort:     v.GetString("metrics_port"),
		SaveDelay:       saveDelay,
		WatcherEnabled:  v.GetBool("watcher_enabled"),
		MetricsEnabled:  v.GetBool("metrics_enabled"),
		LogHealthChecks: v.GetBool("log_health_checks"),
		MetadataPath:    filepath.Join(dataDir, "metadata.json"),
		PreferencesPath: filepath.Join(dataDir, "preferences.json"),
		ProfilesPath:    filepath.Join(dataDir, "profiles.json"),
		RootsPath:       filepath.Join(dataDir, "roots.json"),
		TrashDir:        filepath.Join(dataDir, "trash"),
		ThumbnailDir:    filepath.Join(cacheDir, "thumbnails"),
	}

	logging.Info("  DATA_DIR:          %s", config.DataDir)
	logging.Info("  CACHE_DIR:         %s", config.CacheDir)
	logging.Info("  PORT:              %s", config.Port)
	logging.Info("  METRICS_PORT:      %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:   %v", config.MetricsEnabled)
	logging.Info("  SAVE_DELAY:        %s", config.SaveDelay)
	logging.Info("  WATCHER_ENABLED:   %v", config.WatcherEnabled)
	logging.Info("  LOG_HEALTH_CHECKS: %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	if err := ensureDirectory(config.DataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := testWriteAccess(config.DataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	config.ThumbnailsEnabled = setupOptionalDir(config.ThumbnailDir, "thumbnails")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Stores:     ENABLED (required)")
	logging.Info("    Thumbnails: %s", enabledString(config.ThumbnailsEnabled))
	logging.Info("    Watcher:    %s", enabledString(config.WatcherEnabled))
	logging.Info("    Metrics:    %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("  %s directory unavailable, feature disabled: %v", name, err)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("  %s directory not writable, feature disabled: %v", name, err)
		return false
	}
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Info("  Creating %s directory: %s", name, path)
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	marker := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(marker)
}

func printBanner() {
	logging.Info("============================================================")
	logging.Info("  Media Librarian %s (%s)", Version, Commit)
	logging.Info("  %s %s/%s", GoVersion, runtime.GOOS, runtime.GOARCH)
	logging.Info("============================================================")
}

// RouteInfo describes one registered HTTP route.
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes walks a mux router and collects every registered route.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: pathTemplate})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// LogServerStarted announces the listening addresses.
func LogServerStarted(port, metricsPort string, metricsEnabled bool) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  API:     http://0.0.0.0:%s", port)
	if metricsEnabled {
		logging.Info("  Metrics: http://0.0.0.0:%s/metrics", metricsPort)
	}
}

// LogShutdownInitiated announces the start of a graceful shutdown.
func LogShutdownInitiated(signal string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (%s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs one shutdown stage.
func LogShutdownStep(step string) {
	logging.Info("  %s...", step)
}

// LogShutdownComplete marks shutdown finished.
func LogShutdownComplete() {
	logging.Info("  Shutdown complete")
}
