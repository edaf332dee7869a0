// Package fileutil provides file operation utilities for directory and file management.
//
// EnsureDir creates directories recursively, and EnsureFile creates empty log
// files without truncating existing content. These are used for preparing the
// supervisor data directory and for guaranteeing that every watched log file
// exists before following begins, even when no service has written to it yet.
package fileutil
