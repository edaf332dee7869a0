// Package netutil provides network utility functions for deskinit.
// CheckFree probes whether a service's fixed TCP port is still available,
// allowing the supervisor to fail fast on port conflicts instead of leaving
// the bind failure buried in the service's log file.
package netutil
