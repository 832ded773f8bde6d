package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"shotforge/internal/logging"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
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

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// DefaultPathsFile is read for directory overrides when PATHS_CONFIG is unset.
const DefaultPathsFile = "paths.json"

// ErrMissingCredentials is returned by RequireAPI when the generation
// service cannot be reached without further configuration.
var ErrMissingCredentials = errors.New("missing API credentials")

// Config holds all application configuration
type Config struct {
	ScreenshotsDir string
	OutputsDir     string
	LogsDir        string
	DatabaseDir    string
	CacheDir       string
	PathsFile      string

	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	AuthEnabled     bool
	LogStaticFiles  bool
	LogHealthChecks bool

	PollInterval    time.Duration
	NotifierEnabled bool
	ReadyTimeout    time.Duration
	ReadyInterval   time.Duration

	APITimeout         time.Duration
	GenerationAttempts int
	RetryBackoff       time.Duration

	APIKey            string
	APIURL            string
	Model             string
	VisionAPIURL      string
	VisionModel       string
	VisionInstruction string
	FallbackScene     string
	GuidanceScale     float64
	Watermark         bool
	Seed              int64

	// Derived paths
	DatabasePath string
	ThumbnailDir string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// PathsFile is the optional directory override file. It is YAML, so the
// JSON form {"screenshots_dir": "..."} is accepted unchanged.
type PathsFile struct {
	ScreenshotsDir string `yaml:"screenshots_dir"`
	OutputsDir     string `yaml:"outputs_dir"`
	LogsDir        string `yaml:"logs_dir"`
}

// LoadPathsFile reads path. A missing file returns nil without error.
func LoadPathsFile(path string) (*PathsFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read paths file: %w", err)
	}

	var pf PathsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse paths file %s: %w", path, err)
	}
	return &pf, nil
}

// LoadEnv reads a .env file from the working directory into the process
// environment. Variables already set win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded: %v", err)
	}
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	cfg.log()

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := cfg.prepareDirectories(); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Thumbnails:  %s", enabledString(cfg.ThumbnailsEnabled))
	logging.Info("    Auth:        %s", enabledString(cfg.AuthEnabled))
	logging.Info("    Metrics:     %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

// LoadQuietConfig reads configuration without the banner or directory
// setup. Used by the command line tool.
func LoadQuietConfig() (*Config, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfig builds a Config from the environment and the paths file.
// Precedence per directory: environment, paths file, default.
func readConfig() (*Config, error) {
	LoadEnv()

	cfg := &Config{
		ScreenshotsDir:     getEnv("SCREENSHOTS_DIR", ""),
		OutputsDir:         getEnv("OUTPUTS_DIR", ""),
		LogsDir:            getEnv("LOGS_DIR", ""),
		DatabaseDir:        getEnv("DATABASE_DIR", "./data"),
		CacheDir:           getEnv("CACHE_DIR", "./cache"),
		PathsFile:          getEnv("PATHS_CONFIG", DefaultPathsFile),
		Port:               getEnv("PORT", "8505"),
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		AuthEnabled:        getEnvBool("AUTH_ENABLED", false),
		LogStaticFiles:     getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks:    getEnvBool("LOG_HEALTH_CHECKS", true),
		PollInterval:       getEnvDuration("POLL_INTERVAL", time.Second),
		NotifierEnabled:    getEnvBool("WATCH_NOTIFY", true),
		ReadyTimeout:       getEnvDuration("READY_TIMEOUT", 5*time.Second),
		ReadyInterval:      getEnvDuration("READY_INTERVAL", 100*time.Millisecond),
		APITimeout:         getEnvDuration("API_TIMEOUT", 120*time.Second),
		GenerationAttempts: getEnvInt("GENERATION_ATTEMPTS", 1),
		RetryBackoff:       getEnvDuration("GENERATION_BACKOFF", 2*time.Second),
		APIKey:             getEnv("DOUBAO_API_KEY", ""),
		APIURL:             getEnv("DOUBAO_API_URL", ""),
		Model:              getEnv("DOUBAO_MODEL", ""),
		VisionAPIURL:       getEnv("DOUBAO_VISION_API_URL", ""),
		VisionModel:        getEnv("DOUBAO_VISION_MODEL", ""),
		VisionInstruction:  getEnv("VISION_INSTRUCTION", "vision_no_face"),
		FallbackScene:      getEnv("FALLBACK_SCENE", "park"),
		GuidanceScale:      getEnvFloat("GUIDANCE_SCALE", 2.5),
		Watermark:          getEnvBool("WATERMARK", true),
		Seed:               getEnvInt64("SEED", -1),
	}

	if cfg.GenerationAttempts < 1 {
		logging.Warn("  GENERATION_ATTEMPTS must be at least 1, using 1")
		cfg.GenerationAttempts = 1
	}

	pf, err := LoadPathsFile(cfg.PathsFile)
	if err != nil {
		logging.Warn("  Ignoring paths file: %v", err)
	}
	if pf != nil {
		logging.Info("  Using paths file: %s", cfg.PathsFile)
		cfg.ScreenshotsDir = firstNonEmpty(cfg.ScreenshotsDir, pf.ScreenshotsDir)
		cfg.OutputsDir = firstNonEmpty(cfg.OutputsDir, pf.OutputsDir)
		cfg.LogsDir = firstNonEmpty(cfg.LogsDir, pf.LogsDir)
	}

	cfg.ScreenshotsDir = firstNonEmpty(cfg.ScreenshotsDir, "./Screenshots")
	cfg.OutputsDir = firstNonEmpty(cfg.OutputsDir, "./Outputs")
	cfg.LogsDir = firstNonEmpty(cfg.LogsDir, "./logs")

	return cfg, nil
}

// RequireAPI reports whether the generation credentials are present.
func (c *Config) RequireAPI() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "DOUBAO_API_KEY")
	}
	if c.Model == "" {
		missing = append(missing, "DOUBAO_MODEL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) log() {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  SCREENSHOTS_DIR:     %s", c.ScreenshotsDir)
	logging.Info("  OUTPUTS_DIR:         %s", c.OutputsDir)
	logging.Info("  LOGS_DIR:            %s", c.LogsDir)
	logging.Info("  DATABASE_DIR:        %s", c.DatabaseDir)
	logging.Info("  CACHE_DIR:           %s", c.CacheDir)
	logging.Info("  PORT:                %s", c.Port)
	logging.Info("  METRICS_PORT:        %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", c.MetricsEnabled)
	logging.Info("  AUTH_ENABLED:        %v", c.AuthEnabled)
	logging.Info("  POLL_INTERVAL:       %v", c.PollInterval)
	logging.Info("  WATCH_NOTIFY:        %v", c.NotifierEnabled)
	logging.Info("  READY_TIMEOUT:       %v", c.ReadyTimeout)
	logging.Info("  API_TIMEOUT:         %v", c.APITimeout)
	logging.Info("  GENERATION_ATTEMPTS: %d", c.GenerationAttempts)
	logging.Info("  DOUBAO_API_KEY:      %s", maskSecret(c.APIKey))
	logging.Info("  DOUBAO_MODEL:        %s", orDefault(c.Model))
	logging.Info("  DOUBAO_VISION_MODEL: %s", orDefault(c.VisionModel))
	logging.Info("  VISION_INSTRUCTION:  %s", c.VisionInstruction)
	logging.Info("  FALLBACK_SCENE:      %s", c.FallbackScene)
	logging.Info("  LOG_STATIC_FILES:    %v", c.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
}

func (c *Config) resolvePaths() error {
	dirs := []struct {
		name string
		dir  *string
	}{
		{"screenshots", &c.ScreenshotsDir},
		{"outputs", &c.OutputsDir},
		{"logs", &c.LogsDir},
		{"database", &c.DatabaseDir},
		{"cache", &c.CacheDir},
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(*d.dir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		*d.dir = abs
	}

	c.DatabasePath = filepath.Join(c.DatabaseDir, "shotforge.db")
	c.ThumbnailDir = filepath.Join(c.CacheDir, "thumbnails")
	return nil
}

func (c *Config) prepareDirectories() error {
	if err := c.resolvePaths(); err != nil {
		return err
	}

	logging.Info("  Screenshots directory (absolute): %s", c.ScreenshotsDir)
	logging.Info("  Outputs directory (absolute):     %s", c.OutputsDir)
	logging.Info("  Database directory (absolute):    %s", c.DatabaseDir)

	for _, d := range []struct{ path, name string }{
		{c.ScreenshotsDir, "screenshots"},
		{c.OutputsDir, "outputs"},
		{c.DatabaseDir, "database"},
	} {
		if err := ensureDirectory(d.path, d.name); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}
	}

	logging.Debug("  Testing write access...")
	if err := testWriteAccess(c.OutputsDir); err != nil {
		return fmt.Errorf("outputs directory is not writable: %w", err)
	}
	if err := testWriteAccess(c.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Outputs and database directories are writable")

	if path, err := logging.SetupFile(c.LogsDir); err != nil {
		logging.Warn("  Log file disabled: %v", err)
	} else {
		logging.Info("  [OK] Logging to %s", path)
	}

	c.ThumbnailsEnabled = setupOptionalDir(c.ThumbnailDir, "thumbnails")
	return nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogClientsInit logs the API client setup.
func LogClientsInit(visionModel, generationModel string, visionErr error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("API CLIENTS")
	logging.Info("------------------------------------------------------------")
	if visionErr != nil {
		logging.Warn("  Vision client unavailable: %v", visionErr)
		logging.Warn("  Every screenshot will use the fallback prompt")
	} else {
		logging.Info("  [OK] Vision model:     %s", visionModel)
	}
	logging.Info("  [OK] Generation model: %s", generationModel)
}

// LogThumbnailInit logs thumbnail generator initialization
func LogThumbnailInit(enabled bool) {
	if !enabled {
		logging.Info("  Thumbnails disabled (cache directory not writable)")
		logging.Info("  Full-size images will be served instead")
	}
}

// LogWatcherInit logs watcher initialization
func LogWatcherInit(dir string, interval time.Duration, notify bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WATCHER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Directory:      %s", dir)
	logging.Info("  Poll interval:  %v", interval)
	logging.Info("  Notifications:  %s", enabledString(notify))
	logging.Info("  Starting watcher...")
}

// LogWatcherStarted logs successful watcher start
func LogWatcherStarted() {
	logging.Info("  [OK] Watcher started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	ScreenshotsDir  string
	OutputsDir      string
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Watching:        %s", config.ScreenshotsDir)
	logging.Info("  Writing to:      %s", config.OutputsDir)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Dashboard:     http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Dashboard:     http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   _____ __          __  ____
  / ___// /_  ____  / /_/ __/___  _________ ____
  \__ \/ __ \/ __ \/ __/ /_/ __ \/ ___/ __ '/ _ \
 ___/ / / / / /_/ / /_/ __/ /_/ / /  / /_/ /  __/
/____/_/ /_/\____/\__/_/  \____/_/   \__, /\___/
                                    /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Info("    [OK] Created %s directory: %s", name, path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("Invalid integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
