package main

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/grandcat/zeroconf"

	"github.com/backkem/ieee1905/internal/daemon"
)

// staticResolver answers every browse with the same entries.
type staticResolver []*zeroconf.ServiceEntry

func (r staticResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	go func() {
		for _, e := range r {
			select {
			case entries <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func useResolver(t *testing.T, r daemon.MDNSResolver, err error) {
	t.Helper()
	prev := newResolver
	newResolver = func() (daemon.MDNSResolver, error) { return r, err }
	t.Cleanup(func() { newResolver = prev })
}

func apiEntry(instance, role string, ip net.IP, port int, txt ...string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: instance, Service: daemon.ServiceAPI, Domain: daemon.DefaultDomain},
		Port:          port,
		AddrIPv4:      []net.IP{ip},
		Text:          append([]string{"role=" + role}, txt...),
	}
}

func TestResolveAPI(t *testing.T) {
	useResolver(t, staticResolver{apiEntry("bench", "controller", net.IPv4(192, 0, 2, 1), 8019)}, nil)

	cmd := sendCmd()
	cmd.SetContext(context.Background())
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if got := resolveAPI(cmd, daemon.DefaultAPIAddr); got != "192.0.2.1:8019" {
		t.Errorf("resolveAPI() = %q, want discovered 192.0.2.1:8019", got)
	}

	cmd = sendCmd()
	cmd.SetContext(context.Background())
	if err := cmd.ParseFlags([]string{"--api", "127.0.0.1:9000"}); err != nil {
		t.Fatal(err)
	}
	if got := resolveAPI(cmd, "127.0.0.1:9000"); got != "127.0.0.1:9000" {
		t.Errorf("resolveAPI(--api) = %q, want flag value", got)
	}
}

func TestResolveAPIFallback(t *testing.T) {
	useResolver(t, nil, errors.New("no multicast"))

	cmd := watchCmd()
	cmd.SetContext(context.Background())
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if got := resolveAPI(cmd, daemon.DefaultAPIAddr); got != daemon.DefaultAPIAddr {
		t.Errorf("resolveAPI() = %q, want %q", got, daemon.DefaultAPIAddr)
	}
}

func TestDiscoverController(t *testing.T) {
	useResolver(t, staticResolver{
		apiEntry("agent", "agent", net.IPv4(192, 0, 2, 2), 8020, "data_port=19051"),
		apiEntry("bridge", "controller", net.IPv4(192, 0, 2, 3), 8019, "transport=linklayer"),
		apiEntry("controller", "controller", net.IPv4(192, 0, 2, 4), 8019, "data_port=19050"),
	}, nil)

	dst, err := discoverController(context.Background())
	if err != nil {
		t.Fatalf("discoverController() error = %v", err)
	}
	if dst != "192.0.2.4:19050" {
		t.Errorf("discoverController() = %q, want 192.0.2.4:19050", dst)
	}
}

func TestDiscoverControllerNone(t *testing.T) {
	useResolver(t, nil, errors.New("no multicast"))

	if _, err := discoverController(context.Background()); !errors.Is(err, daemon.ErrMissingDestination) {
		t.Errorf("discoverController() error = %v, want %v", err, daemon.ErrMissingDestination)
	}
}
