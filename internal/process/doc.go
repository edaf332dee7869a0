// Package process provides utilities for managing external process lifecycle.
//
// It defines BaseProcess for common process start/stop behavior, the Stoppable
// interface, StopCloseAndNil for atomic cleanup, WaitReady for polling-based
// readiness checks, and LogFile for capturing a process's combined
// stdout/stderr into an append-mode log file.
package process
