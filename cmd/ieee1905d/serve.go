package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backkem/ieee1905/internal/daemon"
	"github.com/backkem/ieee1905/pkg/transport"
)

// serveFlags holds the flags that override the config file.
type serveFlags struct {
	configPath  string
	role        string
	bind        string
	port        int
	api         string
	transport   string
	iface       string
	drainMode   string
	logLevel    string
	noRespond   bool
	noAdvertise bool
	instance    string
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&f.role, "role", "controller", "Protocol role: controller or agent")
	cmd.Flags().StringVar(&f.bind, "bind", "", "UDP bind host")
	cmd.Flags().IntVarP(&f.port, "port", "p", transport.DefaultPort, "UDP data port")
	cmd.Flags().StringVar(&f.api, "api", daemon.DefaultAPIAddr, "HTTP API listen address")
	cmd.Flags().StringVar(&f.transport, "transport", daemon.TransportUDP, "Substrate: udp or linklayer")
	cmd.Flags().StringVarP(&f.iface, "interface", "i", "", "Network interface for the link-layer substrate")
	cmd.Flags().StringVar(&f.drainMode, "drain-mode", daemon.DrainEvent, "Inbound draining: event or poll")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level: disabled, error, warn, info, debug, trace")
	cmd.Flags().BoolVar(&f.noRespond, "no-respond", false, "Do not answer queries and searches")
	cmd.Flags().BoolVar(&f.noAdvertise, "no-advertise", false, "Do not advertise the API over mDNS")
	cmd.Flags().StringVar(&f.instance, "mdns-instance", "", "mDNS instance name (default ieee1905d-<al_mac>)")
}

// config loads the config file, if any, and applies the flags that were set.
func (f *serveFlags) config(cmd *cobra.Command) (daemon.Config, error) {
	cfg := daemon.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = daemon.LoadConfig(f.configPath); err != nil {
			return daemon.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("role") {
		role, ok := transport.ParseRole(f.role)
		if !ok {
			return daemon.Config{}, fmt.Errorf("unknown role %q", f.role)
		}
		cfg.Role = role
	}
	if flags.Changed("bind") {
		cfg.BindAddress = f.bind
	}
	if flags.Changed("port") {
		cfg.ListenPort = f.port
	}
	if flags.Changed("api") {
		cfg.APIAddr = f.api
	}
	if flags.Changed("transport") {
		cfg.Transport = f.transport
	}
	if flags.Changed("interface") {
		cfg.Interface = f.iface
	}
	if flags.Changed("drain-mode") {
		cfg.DrainMode = f.drainMode
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("no-respond") {
		cfg.AutoRespond = !f.noRespond
	}
	if flags.Changed("no-advertise") {
		cfg.Advertise = !f.noAdvertise
	}
	if flags.Changed("mdns-instance") {
		cfg.MDNSInstance = f.instance
	}

	return cfg, cfg.Validate()
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an endpoint and its HTTP API",
		Long: `Run an IEEE 1905.1 endpoint.

Frames are exchanged over UDP (default port 19050) or, with
--transport=linklayer, as raw Ethernet frames of type 0x893A.
Send requests arrive on POST /v1/send and received frames are
streamed on GET /v1/events. The API is advertised over mDNS as
_ieee1905._tcp unless --no-advertise is given.

Examples:
  ieee1905d serve
  ieee1905d serve --role agent --port 19051 --api 127.0.0.1:8020
  ieee1905d serve --config /etc/ieee1905d.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			return serve(cfg, nil)
		},
	}
	flags.register(cmd)

	return cmd
}

// serve runs the daemon until interrupted. started, if set, runs alongside
// the daemon; its sends are handled once the event loop is up.
func serve(cfg daemon.Config, started func(context.Context, *daemon.Daemon)) error {
	d, err := daemon.New(cfg, daemon.Options{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s %s on %v, api on %s\n", cfg.Role, d.LocalAddress(), d.LocalAddr(), cfg.APIAddr)

	if started != nil {
		go started(ctx, d)
	}

	return d.Serve(ctx)
}

func agentCmd() *cobra.Command {
	var (
		flags serveFlags
		dst   string
	)

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run as agent and announce to a controller",
		Long: `Run an endpoint in the agent role. Once listening, the agent
sends a topology discovery and an AP-autoconfiguration search to
--dst, the controller's data address. Without --dst the controller
is looked up over mDNS.

Example:
  ieee1905d agent --port 19051 --api 127.0.0.1:8020 --dst 127.0.0.1:19050`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			cfg.Role = transport.RoleAgent

			if dst == "" {
				if dst, err = discoverController(cmd.Context()); err != nil {
					return err
				}
			}

			return serve(cfg, func(ctx context.Context, d *daemon.Daemon) {
				for _, typ := range []daemon.SendType{daemon.SendTopologyDiscovery, daemon.SendAPSearch} {
					mid, err := d.Send(ctx, daemon.SendRequest{Type: typ, Dst: dst})
					if err != nil {
						fmt.Fprintf(os.Stderr, "send %s: %v\n", typ, err)
						continue
					}
					fmt.Printf("sent %s mid=%d to %s\n", typ, mid, dst)
				}
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&dst, "dst", "", "Controller data address, discovered over mDNS when empty")

	return cmd
}
