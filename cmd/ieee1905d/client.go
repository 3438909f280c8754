package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backkem/ieee1905/internal/daemon"
)

func sendCmd() *cobra.Command {
	var (
		api string
		req daemon.SendRequest
		typ string
	)

	types := make([]string, len(daemon.SendTypes))
	for i, t := range daemon.SendTypes {
		types[i] = string(t)
	}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Ask a running endpoint to send a CMDU",
		Long: `Ask a running endpoint to send a CMDU and print its message id.

Types: ` + strings.Join(types, ", ") + `

Examples:
  ieee1905d send --type topology_discovery --dst 127.0.0.1:19051
  ieee1905d send --type ap_wsc --dst 127.0.0.1:19051 --payload 1020`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Type = daemon.SendType(typ)
			mid, err := daemon.NewClient(resolveAPI(cmd, api)).Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("mid=%d\n", mid)
			return nil
		},
	}

	cmd.Flags().StringVar(&api, "api", daemon.DefaultAPIAddr, "Daemon API address, discovered over mDNS when not set")
	cmd.Flags().StringVarP(&typ, "type", "t", string(daemon.SendTopologyDiscovery), "Message type")
	cmd.Flags().StringVarP(&req.Dst, "dst", "d", "", "Destination address")
	cmd.Flags().StringVar(&req.MAC, "mac", "", "Interface / radio id override")
	cmd.Flags().StringVar(&req.Payload, "payload", "", "Hex configuration payload for ap_wsc")

	return cmd
}

func watchCmd() *cobra.Command {
	var (
		api    string
		status bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print frames received by a running endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := daemon.NewClient(resolveAPI(cmd, api))
			enc := json.NewEncoder(os.Stdout)

			if status {
				st, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				return enc.Encode(st)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return client.Watch(ctx, func(ev daemon.Event) {
				enc.Encode(ev)
			})
		},
	}

	cmd.Flags().StringVar(&api, "api", daemon.DefaultAPIAddr, "Daemon API address, discovered over mDNS when not set")
	cmd.Flags().BoolVar(&status, "status", false, "Print the daemon status and exit")

	return cmd
}
