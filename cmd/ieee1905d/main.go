// ieee1905d runs an IEEE 1905.1 endpoint and controls it over HTTP.
//
// Usage:
//
//	ieee1905d serve [flags]     run the endpoint and its API
//	ieee1905d send [flags]      ask a running endpoint to send a CMDU
//	ieee1905d watch [flags]     print frames received by a running endpoint
//	ieee1905d agent [flags]     run as agent and announce to a controller
//	ieee1905d version
//
// Without --api, send and watch look up a daemon advertised over mDNS
// and fall back to the default API address. Without --dst, agent looks
// up the controller the same way.
//
// Example:
//
//	ieee1905d serve --role controller --port 19050
//	ieee1905d send --type topology_query --dst 127.0.0.1:19051
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ieee1905d",
		Short:         "IEEE 1905.1 CMDU endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		agentCmd(),
		sendCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ieee1905d %s (%s)\n", version, commit)
		},
	}
}
