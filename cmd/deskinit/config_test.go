package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a TOML config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deskinit.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestBuiltinConfig(t *testing.T) {
	t.Parallel()

	cfg := builtinConfig()
	if len(cfg.SetupSteps) != 2 {
		t.Errorf("SetupSteps = %d, want 2", len(cfg.SetupSteps))
	}
	if len(cfg.Services) != 2 {
		t.Fatalf("Services = %d, want 2", len(cfg.Services))
	}
	if cfg.Services[0].Port != 8080 || cfg.Services[1].Port != 9000 {
		t.Errorf("service ports = %d, %d", cfg.Services[0].Port, cfg.Services[1].Port)
	}
	if len(cfg.WatchLogs) != 1 {
		t.Errorf("WatchLogs = %v", cfg.WatchLogs)
	}
	if cfg.ReadyTimeout != 0 {
		t.Errorf("ReadyTimeout = %v, want 0", cfg.ReadyTimeout)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("absent keys keep built-in values", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `data_dir = "/var/lib/deskinit"`)

		cfg, err := loadConfig(path, builtinConfig())
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.DataDir != "/var/lib/deskinit" {
			t.Errorf("DataDir = %q", cfg.DataDir)
		}
		if len(cfg.Services) != 2 {
			t.Errorf("Services = %d, want built-in 2", len(cfg.Services))
		}
		if cfg.StopTimeout != builtinConfig().StopTimeout {
			t.Errorf("StopTimeout = %v", cfg.StopTimeout)
		}
	})

	t.Run("service list replaces built-ins", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
[[service]]
name = "web"
command = ["busybox", "httpd", "-f", "-p", "8081"]
port = 8081
log = "/tmp/web.log"
env = ["LANG=C"]
`)

		cfg, err := loadConfig(path, builtinConfig())
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if len(cfg.Services) != 1 {
			t.Fatalf("Services = %d, want 1", len(cfg.Services))
		}
		svc := cfg.Services[0]
		if svc.Name != "web" || svc.Port != 8081 || svc.LogPath != "/tmp/web.log" {
			t.Errorf("service = %+v", svc)
		}
		if len(svc.Command) != 5 || svc.Command[0] != "busybox" {
			t.Errorf("command = %v", svc.Command)
		}
		if len(svc.Env) != 1 || svc.Env[0] != "LANG=C" {
			t.Errorf("env = %v", svc.Env)
		}
	})

	t.Run("setup list replaces built-ins", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
[[setup]]
name = "migrate"
command = ["./migrate.sh", "--fast"]
dir = "/opt/app"
`)

		cfg, err := loadConfig(path, builtinConfig())
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if len(cfg.SetupSteps) != 1 {
			t.Fatalf("SetupSteps = %d, want 1", len(cfg.SetupSteps))
		}
		if cfg.SetupSteps[0].Name != "migrate" || cfg.SetupSteps[0].Dir != "/opt/app" {
			t.Errorf("step = %+v", cfg.SetupSteps[0])
		}
	})

	t.Run("durations and toggles", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
ready_timeout = "45s"
stop_timeout = "2s"
skip_port_preflight = true
follow_from_start = true
watch_logs = ["/tmp/a.log", "/tmp/b.log"]
status_lines = ["up"]
`)

		cfg, err := loadConfig(path, builtinConfig())
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.ReadyTimeout != 45*time.Second {
			t.Errorf("ReadyTimeout = %v", cfg.ReadyTimeout)
		}
		if cfg.StopTimeout != 2*time.Second {
			t.Errorf("StopTimeout = %v", cfg.StopTimeout)
		}
		if !cfg.SkipPortPreflight || !cfg.FollowFromStart {
			t.Errorf("toggles = %v, %v", cfg.SkipPortPreflight, cfg.FollowFromStart)
		}
		if len(cfg.WatchLogs) != 2 || len(cfg.StatusLines) != 1 {
			t.Errorf("WatchLogs = %v, StatusLines = %v", cfg.WatchLogs, cfg.StatusLines)
		}
	})

	t.Run("invalid duration fails", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `ready_timeout = "soon"`)

		if _, err := loadConfig(path, builtinConfig()); err == nil {
			t.Fatal("expected error for bad duration")
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Parallel()
		if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), builtinConfig()); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestCliConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() cliConfig {
		cfg := builtinConfig()
		cfg.DataDir = "/tmp/deskinit"
		return cfg
	}

	type testCase struct {
		mutate  func(*cliConfig)
		wantErr string
	}

	tests := map[string]testCase{
		"built-in config is valid": {
			mutate: func(*cliConfig) {},
		},
		"missing data dir": {
			mutate:  func(c *cliConfig) { c.DataDir = "" },
			wantErr: "data dir must not be empty",
		},
		"zero stop timeout": {
			mutate:  func(c *cliConfig) { c.StopTimeout = 0 },
			wantErr: "stop timeout must be greater than 0",
		},
		"negative ready timeout": {
			mutate:  func(c *cliConfig) { c.ReadyTimeout = -time.Second },
			wantErr: "ready timeout must not be negative",
		},
		"service missing port": {
			mutate:  func(c *cliConfig) { c.Services[0].Port = 0 },
			wantErr: "port must be between 1 and 65535",
		},
		"service missing name": {
			mutate:  func(c *cliConfig) { c.Services[1].Name = "" },
			wantErr: "name must not be empty",
		},
		"service missing command": {
			mutate:  func(c *cliConfig) { c.Services[0].Command = nil },
			wantErr: "command must not be empty",
		},
		"service missing log path": {
			mutate:  func(c *cliConfig) { c.Services[0].LogPath = "" },
			wantErr: "log path must not be empty",
		},
		"setup step missing name": {
			mutate:  func(c *cliConfig) { c.SetupSteps[0].Name = "" },
			wantErr: "name must not be empty",
		},
		"setup step missing command": {
			mutate:  func(c *cliConfig) { c.SetupSteps[1].Command = nil },
			wantErr: "command must not be empty",
		},
		"empty watch log path": {
			mutate:  func(c *cliConfig) { c.WatchLogs[0] = "" },
			wantErr: "path must not be empty",
		},
		"empty status line": {
			mutate:  func(c *cliConfig) { c.StatusLines[0] = "" },
			wantErr: "must not be empty",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.validate()

			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestCliConfigValidate_ReportsAllViolations(t *testing.T) {
	t.Parallel()

	cfg := builtinConfig()
	cfg.DataDir = ""
	cfg.Services[0].Port = 0
	cfg.StatusLines[0] = ""
	err := cfg.validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, want := range []string{
		"data dir must not be empty",
		"port must be between 1 and 65535",
		"status line 1: must not be empty",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestOptionsTranslation(t *testing.T) {
	t.Parallel()

	cfg := builtinConfig()
	cfg.DataDir = t.TempDir()
	opts := cfg.options()

	// Built-ins: data dir, stop timeout, 2 setup steps, 2 services, 1 watch
	// log, 2 status lines. No ready timeout, preflight, or from-start opts.
	if len(opts) != 9 {
		t.Errorf("len(opts) = %d, want 9", len(opts))
	}
}
