// File: cmd/paypal-relay/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
)

type rootFlags struct {
	configPath string
	dev        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	serve := serveCmd(flags)

	rootCmd := &cobra.Command{
		Use:           "paypal-relay",
		Short:         "PayPal checkout relay: payment links, webhooks and payment records",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// bare invocation serves, as the container entrypoint expects
		RunE: serve.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flags.dev, "dev", false, "developer mode: console logs, unredacted payer data")

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd(flags))
	rootCmd.AddCommand(paymentsCmd(flags))
	rootCmd.AddCommand(adminTokenCmd(flags))
	return rootCmd
}
