/*
Shotctl is the maintenance command for a shotforge installation.

It reads the same environment variables, .env file and paths file as the
server, so it always operates on the same directories and database.

Usage:

	shotctl status [--json]
	shotctl reset-password
	shotctl process <file> [--keep] [--no-record]
	shotctl sizes [width height]

The status command prints the configured directories, pending screenshot
count, whether API credentials and a dashboard password are set, and a
summary of the generation history.

The reset-password command replaces the dashboard password and invalidates
every session. It refuses to run before a password has been set up.

The process command runs the full pipeline once on a single file, exactly as
the watcher would, and prints the outcome.
*/
package main
