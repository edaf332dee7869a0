// Package deskinit is a container entrypoint supervisor for remote-desktop
// demo containers. It runs a fixed sequence of blocking setup steps (the
// display stack, the remote-display proxy), launches long-running background
// services with their combined output appended to per-service log files,
// prints operator-facing status lines, and then follows the log files
// forever, acting as the container's foreground keep-alive process.
//
// On SIGTERM or SIGINT (surfaced as context cancellation) the supervisor
// stops every service with SIGTERM, escalating to SIGKILL after a grace
// period, and exits cleanly. Background services are fire-and-forget: a
// service that dies after a successful launch is not restarted, and its
// death is visible only in its log file and the run journal.
//
// # Basic Usage
//
//	sup, err := deskinit.NewSupervisor(
//	    deskinit.WithDataDir("/home/user/.deskinit"),
//	    deskinit.WithSetupStep(deskinit.SetupStep{
//	        Name:    "display-stack",
//	        Command: []string{"./start_all.sh"},
//	    }),
//	    deskinit.WithService(deskinit.Service{
//	        Name:    "web",
//	        Command: []string{"python3", "http_server.py"},
//	        Port:    deskinit.DefaultWebPort,
//	        LogPath: "/tmp/web.log",
//	    }),
//	    deskinit.WithStatusLine("open http://localhost:8080 to begin"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//	if err := sup.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package deskinit
