// Package tailer follows a fixed set of log files and re-emits newly appended
// lines on a single output stream. It is the keep-alive surface of the
// supervisor: once the background services are launched, the tailer blocks
// until shutdown, streaming the services' log files to the container's
// standard output the way tail -f would.
package tailer
