// Package setup runs the blocking setup steps that must complete before any
// background service is launched, such as starting the display stack and the
// remote-display proxy. Each step is an external command executed
// synchronously; the first failure aborts the sequence.
package setup
