//go:build !race
// +build !race

package daemon

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestE2E_AdvertiseAPI advertises a daemon with the real zeroconf stack and
// finds it by browsing. It needs a multicast-capable interface and is
// skipped where registration or discovery is not possible.
func TestE2E_AdvertiseAPI(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	cfg := testConfig(DrainPoll)
	cfg.Advertise = true
	cfg.MDNSInstance = "ieee1905d-e2e-" + time.Now().Format("150405.000")
	d := startDaemonWith(t, cfg, Options{})

	if _, err := d.client.Status(context.Background()); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	time.Sleep(1 * time.Second)

	resolver, err := NewMDNSResolver()
	if err != nil {
		t.Skipf("no mDNS resolver: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc, err := DiscoverAPI(ctx, resolver, func(s Service) bool {
		return s.Instance == cfg.MDNSInstance
	})
	if errors.Is(err, ErrServiceNotFound) {
		t.Skip("service not seen, multicast may be unavailable")
	}
	if err != nil {
		t.Fatalf("DiscoverAPI() error = %v", err)
	}
	t.Logf("discovered %s at %s (txt role=%s al_mac=%s)", svc.Instance, svc.APIAddr(), svc.Role, svc.ALMAC)

	if svc.Role != "controller" || svc.ALMAC != controllerMAC.String() {
		t.Errorf("Role = %q ALMAC = %q", svc.Role, svc.ALMAC)
	}
	if _, err := NewClient(svc.APIAddr()).Status(ctx); err != nil {
		t.Errorf("Status() via %s error = %v", svc.APIAddr(), err)
	}
}
