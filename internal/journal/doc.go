// Package journal records supervisor lifecycle events (run start, setup
// completion, service starts, exits, and stops) in an append-only SQLite
// database inside the data directory. The ledger is the operator's record of
// what the supervisor did across container restarts.
package journal
