// Package database provides SQLite storage for shotforge.
//
// It keeps two things:
//   - the generation history, one row per finished pipeline run or manual
//     generation from the dashboard
//   - the single dashboard user and its sessions
//
// The database uses WAL mode so the dashboard can read history while the
// pipeline writes it. Nothing the watcher needs for correctness lives here:
// the processed-file set is in memory and the file system is the source of
// truth for what still has to be done.
package database
