package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	server  string
	logMode string
	json    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "brandctl",
		Short:         "Onboard brands and curate their research prompts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("BRAND_API_URL", "http://localhost:8080"), "API server base URL")
	root.PersistentFlags().StringVar(&opts.logMode, "log-mode", envOr("LOG_MODE", "test"), "logger mode (development, production, test)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON")

	root.AddCommand(onboardCmd(opts))
	root.AddCommand(showCmd(opts))
	root.AddCommand(listCmd(opts))
	root.AddCommand(statsCmd(opts))
	root.AddCommand(curateCmd(opts))
	root.AddCommand(eventsCmd(opts))
	return root
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
