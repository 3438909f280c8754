package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backkem/ieee1905/internal/daemon"
	"github.com/backkem/ieee1905/pkg/transport"
)

// newResolver is replaced in tests.
var newResolver = daemon.NewMDNSResolver

func discover(ctx context.Context, match func(daemon.Service) bool) (daemon.Service, error) {
	resolver, err := newResolver()
	if err != nil {
		return daemon.Service{}, err
	}
	return daemon.DiscoverAPI(ctx, resolver, match)
}

// resolveAPI returns api when --api was given. Otherwise it returns the
// API of a daemon found over mDNS, or api if none answers.
func resolveAPI(cmd *cobra.Command, api string) string {
	if cmd.Flags().Changed("api") {
		return api
	}
	svc, err := discover(cmd.Context(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "no daemon discovered (%v), using %s\n", err, api)
		return api
	}
	fmt.Fprintf(os.Stderr, "using %s at %s\n", svc.Instance, svc.APIAddr())
	return svc.APIAddr()
}

// discoverController returns the UDP data address of a controller found
// over mDNS.
func discoverController(ctx context.Context) (string, error) {
	svc, err := discover(ctx, func(s daemon.Service) bool {
		return s.Role == transport.RoleController.String() && s.DataAddr() != ""
	})
	if err != nil {
		return "", fmt.Errorf("%w: no controller discovered: %v", daemon.ErrMissingDestination, err)
	}
	fmt.Printf("discovered controller %s at %s\n", svc.Instance, svc.DataAddr())
	return svc.DataAddr(), nil
}
