// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read from environment variables via [LoadConfig]. A .env
// file in the working directory is loaded first; variables that are already
// set take precedence over it. The screenshot, output and log directories
// may also come from a paths file (PATHS_CONFIG, default paths.json), which
// is parsed as YAML and therefore also accepts JSON. Environment variables
// win over the paths file.
//
//   - SCREENSHOTS_DIR: Directory to watch (default: ./Screenshots)
//   - OUTPUTS_DIR: Where generated images are written (default: ./Outputs)
//   - LOGS_DIR: Log file directory (default: ./logs)
//   - DATABASE_DIR: History and auth database directory (default: ./data)
//   - CACHE_DIR: Thumbnail cache (default: ./cache)
//   - PORT: Dashboard port (default: 8505)
//   - METRICS_PORT / METRICS_ENABLED: Prometheus endpoint (default: 9090, true)
//   - AUTH_ENABLED: Require a dashboard password (default: false)
//   - POLL_INTERVAL: Directory poll interval (default: 1s)
//   - WATCH_NOTIFY: Use filesystem notifications as scan hints (default: true)
//   - READY_TIMEOUT / READY_INTERVAL: Partial-write guard (default: 5s, 100ms)
//   - API_TIMEOUT: Per-request timeout for the vision and generation APIs (default: 120s)
//   - GENERATION_ATTEMPTS / GENERATION_BACKOFF: Retry policy (default: 1, 2s)
//   - DOUBAO_API_KEY, DOUBAO_MODEL: Required for generation
//   - DOUBAO_API_URL, DOUBAO_VISION_API_URL, DOUBAO_VISION_MODEL: Endpoint overrides
//   - VISION_INSTRUCTION, FALLBACK_SCENE: Prompt selection
//   - GUIDANCE_SCALE, WATERMARK, SEED: Generation parameters
//   - LOG_LEVEL, LOG_STATIC_FILES, LOG_HEALTH_CHECKS: Logging
//
// [LoadQuietConfig] reads the same settings without printing the banner or
// touching the filesystem, for the command line tool.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
