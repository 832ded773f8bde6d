// Package logging provides a simple leveled logging interface for shotforge.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. SetupFile mirrors output into
// LOGS_DIR/shotforge.log so pipeline history survives the terminal.
package logging
