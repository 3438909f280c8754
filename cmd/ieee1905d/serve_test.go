package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/backkem/ieee1905/internal/daemon"
	"github.com/backkem/ieee1905/pkg/transport"
)

func parseServeFlags(t *testing.T, args ...string) (daemon.Config, error) {
	t.Helper()
	var f serveFlags
	cmd := &cobra.Command{Use: "serve"}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return f.config(cmd)
}

func TestServeFlagsDefaults(t *testing.T) {
	cfg, err := parseServeFlags(t)
	if err != nil {
		t.Fatalf("config() error = %v", err)
	}
	def := daemon.DefaultConfig()
	if cfg.Role != def.Role || cfg.ListenPort != def.ListenPort || cfg.APIAddr != def.APIAddr {
		t.Errorf("config() = %+v, want defaults", cfg)
	}
}

func TestServeFlagsOverrides(t *testing.T) {
	cfg, err := parseServeFlags(t,
		"--role", "agent",
		"--port", "19051",
		"--api", "127.0.0.1:8020",
		"--drain-mode", "poll",
		"--log-level", "debug",
		"--no-respond",
	)
	if err != nil {
		t.Fatalf("config() error = %v", err)
	}
	if cfg.Role != transport.RoleAgent {
		t.Errorf("Role = %v, want agent", cfg.Role)
	}
	if cfg.ListenPort != 19051 || cfg.APIAddr != "127.0.0.1:8020" {
		t.Errorf("ListenPort = %d APIAddr = %q", cfg.ListenPort, cfg.APIAddr)
	}
	if cfg.DrainMode != daemon.DrainPoll || cfg.LogLevel != "debug" {
		t.Errorf("DrainMode = %q LogLevel = %q", cfg.DrainMode, cfg.LogLevel)
	}
	if cfg.AutoRespond {
		t.Error("AutoRespond = true, want false")
	}
}

func TestServeFlagsOverConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ieee1905d.toml")
	if err := os.WriteFile(path, []byte("role = \"agent\"\nlisten_port = 19060\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseServeFlags(t, "--config", path, "--port", "19061")
	if err != nil {
		t.Fatalf("config() error = %v", err)
	}
	if cfg.Role != transport.RoleAgent {
		t.Errorf("Role = %v, want agent from file", cfg.Role)
	}
	if cfg.ListenPort != 19061 {
		t.Errorf("ListenPort = %d, want flag value 19061", cfg.ListenPort)
	}
}

func TestServeFlagsInvalid(t *testing.T) {
	if _, err := parseServeFlags(t, "--role", "bridge"); err == nil {
		t.Error("config() with bad role error = nil")
	}
	if _, err := parseServeFlags(t, "--transport", "linklayer"); err == nil {
		t.Error("config() link layer without interface error = nil")
	}
}

func TestServeFlagsAdvertise(t *testing.T) {
	cfg, err := parseServeFlags(t)
	if err != nil {
		t.Fatalf("config() error = %v", err)
	}
	if !cfg.Advertise || cfg.MDNSInstance != "" {
		t.Errorf("Advertise = %v MDNSInstance = %q, want true and empty", cfg.Advertise, cfg.MDNSInstance)
	}

	cfg, err = parseServeFlags(t, "--no-advertise", "--mdns-instance", "bench")
	if err != nil {
		t.Fatalf("config() error = %v", err)
	}
	if cfg.Advertise || cfg.MDNSInstance != "bench" {
		t.Errorf("Advertise = %v MDNSInstance = %q, want false and bench", cfg.Advertise, cfg.MDNSInstance)
	}
}
