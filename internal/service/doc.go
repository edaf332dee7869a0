// Package service manages a single long-running background service as an
// external child process: spawn with output appended to a log file, an
// optional TCP readiness wait, and SIGTERM-then-SIGKILL shutdown. The
// supervisor runs one Process per configured service (the static web server
// and the API server by default).
package service
