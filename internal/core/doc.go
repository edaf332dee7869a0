// Package core implements the supervisor that drives the container
// entrypoint sequence: data-dir locking, the run journal, blocking setup
// steps, background service launches, and the log-follow loop that keeps the
// container's foreground process alive until shutdown.
package core
