package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/deskenv/deskinit"
)

// cliConfig is the resolved configuration the binary runs with: the built-in
// desktop-container defaults, optionally overridden by a TOML file and then
// by command-line flags.
type cliConfig struct {
	DataDir           string
	SetupSteps        []deskinit.SetupStep
	Services          []deskinit.Service
	WatchLogs         []string
	StatusLines       []string
	ReadyTimeout      time.Duration
	StopTimeout       time.Duration
	SkipPortPreflight bool
	FollowFromStart   bool
}

// builtinConfig reproduces the classic desktop container entrypoint: two
// blocking setup scripts bring up the display stack, then a static content
// server and an API server run in the background with their output captured
// to files under /tmp, which are followed together with the display log.
func builtinConfig() cliConfig {
	return cliConfig{
		DataDir: deskinit.DefaultDataDir(),
		SetupSteps: []deskinit.SetupStep{
			{Name: "start-all", Command: []string{"./start_all.sh"}},
			{Name: "novnc", Command: []string{"./novnc_startup.sh"}},
		},
		Services: []deskinit.Service{
			{
				Name:    "web",
				Command: []string{"python3", "http_server.py"},
				Port:    deskinit.DefaultWebPort,
				LogPath: "/tmp/server_logs.txt",
			},
			{
				Name:    "api",
				Command: []string{"python3", "-m", "uvicorn", "api.server:app", "--host", "0.0.0.0", "--port", "9000"},
				Env:     []string{"PYTHONPATH=."},
				Port:    deskinit.DefaultAPIPort,
				LogPath: "/tmp/api_server_logs.txt",
			},
		},
		WatchLogs: []string{"/tmp/novnc_logs.txt"},
		StatusLines: []string{
			"✨ Desktop environment is ready!",
			"➡️  Open http://localhost:8080 in your browser to begin",
		},
		StopTimeout: deskinit.DefaultStopTimeout,
	}
}

// fileSetupStep is the TOML shape of a [[setup]] block.
type fileSetupStep struct {
	Name    string   `toml:"name"`
	Command []string `toml:"command"`
	Dir     string   `toml:"dir"`
	Env     []string `toml:"env"`
}

// fileService is the TOML shape of a [[service]] block.
type fileService struct {
	Name    string   `toml:"name"`
	Command []string `toml:"command"`
	Dir     string   `toml:"dir"`
	Env     []string `toml:"env"`
	Port    int      `toml:"port"`
	Log     string   `toml:"log"`
}

// fileConfig is the TOML shape of a config file. Durations are strings in
// time.ParseDuration syntax ("30s", "1m").
type fileConfig struct {
	DataDir           string          `toml:"data_dir"`
	Setup             []fileSetupStep `toml:"setup"`
	Service           []fileService   `toml:"service"`
	WatchLogs         []string        `toml:"watch_logs"`
	StatusLines       []string        `toml:"status_lines"`
	ReadyTimeout      string          `toml:"ready_timeout"`
	StopTimeout       string          `toml:"stop_timeout"`
	SkipPortPreflight bool            `toml:"skip_port_preflight"`
	FollowFromStart   bool            `toml:"follow_from_start"`
}

// loadConfig applies the TOML file at path on top of cfg. Keys absent from
// the file keep their built-in values; defined [[setup]] or [[service]]
// lists replace the built-in lists wholesale rather than appending, so a
// file describing a different container does not inherit the default
// children.
func loadConfig(path string, cfg cliConfig) (cliConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("data_dir") {
		cfg.DataDir = strings.TrimSpace(raw.DataDir)
	}

	if meta.IsDefined("setup") {
		steps := make([]deskinit.SetupStep, 0, len(raw.Setup))
		for _, s := range raw.Setup {
			steps = append(steps, deskinit.SetupStep{
				Name:    s.Name,
				Command: s.Command,
				Dir:     s.Dir,
				Env:     s.Env,
			})
		}
		cfg.SetupSteps = steps
	}

	if meta.IsDefined("service") {
		services := make([]deskinit.Service, 0, len(raw.Service))
		for _, s := range raw.Service {
			services = append(services, deskinit.Service{
				Name:    s.Name,
				Command: s.Command,
				Dir:     s.Dir,
				Env:     s.Env,
				Port:    s.Port,
				LogPath: s.Log,
			})
		}
		cfg.Services = services
	}

	if meta.IsDefined("watch_logs") {
		cfg.WatchLogs = raw.WatchLogs
	}

	if meta.IsDefined("status_lines") {
		cfg.StatusLines = raw.StatusLines
	}

	if meta.IsDefined("ready_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadyTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse ready_timeout: %w", err)
		}
		cfg.ReadyTimeout = d
	}

	if meta.IsDefined("stop_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.StopTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse stop_timeout: %w", err)
		}
		cfg.StopTimeout = d
	}

	if meta.IsDefined("skip_port_preflight") {
		cfg.SkipPortPreflight = raw.SkipPortPreflight
	}

	if meta.IsDefined("follow_from_start") {
		cfg.FollowFromStart = raw.FollowFromStart
	}

	return cfg, nil
}

// validate checks the resolved configuration before it is translated into
// supervisor options. The root package's With* options panic on invalid
// input, which is the right contract for values a programmer hardcodes, but
// here the values come from a user-editable TOML file; a typo in the file
// must surface as an error from run, never as a panic. Every violation found
// is reported, joined with errors.Join.
func (c cliConfig) validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir must not be empty"))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, errors.New("stop timeout must be greater than 0"))
	}
	if c.ReadyTimeout < 0 {
		errs = append(errs, errors.New("ready timeout must not be negative"))
	}

	for i, s := range c.SetupSteps {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("setup step %d: name must not be empty", i+1))
		}
		if len(s.Command) == 0 {
			errs = append(errs, fmt.Errorf("setup step %d (%s): command must not be empty", i+1, s.Name))
		}
	}

	for i, s := range c.Services {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("service %d: name must not be empty", i+1))
		}
		if len(s.Command) == 0 {
			errs = append(errs, fmt.Errorf("service %d (%s): command must not be empty", i+1, s.Name))
		}
		if s.Port <= 0 || s.Port > 65535 {
			errs = append(errs, fmt.Errorf("service %d (%s): port must be between 1 and 65535", i+1, s.Name))
		}
		if s.LogPath == "" {
			errs = append(errs, fmt.Errorf("service %d (%s): log path must not be empty", i+1, s.Name))
		}
	}

	for i, p := range c.WatchLogs {
		if p == "" {
			errs = append(errs, fmt.Errorf("watch log %d: path must not be empty", i+1))
		}
	}
	for i, l := range c.StatusLines {
		if l == "" {
			errs = append(errs, fmt.Errorf("status line %d: must not be empty", i+1))
		}
	}

	return errors.Join(errs...)
}

// options translates the resolved configuration into supervisor options.
// The configuration must already have passed validate; the option
// constructors panic on values validate rejects.
func (c cliConfig) options() []deskinit.Option {
	opts := []deskinit.Option{
		deskinit.WithDataDir(c.DataDir),
		deskinit.WithStopTimeout(c.StopTimeout),
	}
	for _, s := range c.SetupSteps {
		opts = append(opts, deskinit.WithSetupStep(s))
	}
	for _, s := range c.Services {
		opts = append(opts, deskinit.WithService(s))
	}
	for _, p := range c.WatchLogs {
		opts = append(opts, deskinit.WithWatchLog(p))
	}
	for _, l := range c.StatusLines {
		opts = append(opts, deskinit.WithStatusLine(l))
	}
	if c.ReadyTimeout > 0 {
		opts = append(opts, deskinit.WithReadyTimeout(c.ReadyTimeout))
	}
	if c.SkipPortPreflight {
		opts = append(opts, deskinit.WithoutPortPreflight())
	}
	if c.FollowFromStart {
		opts = append(opts, deskinit.WithFollowFromStart())
	}
	return opts
}
