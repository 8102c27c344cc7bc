package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vetsearch/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	env        string
	configPath string
}

func (f *rootFlags) load() (config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath) //nolint:wrapcheck // already descriptive
	}
	return config.Load(f.env) //nolint:wrapcheck // already descriptive
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	serve := newServeCmd(flags)
	root := &cobra.Command{
		Use:           "vetsearch",
		Short:         "Veterinary learning content search API",
		Long:          "vetsearch serves BM25, uniCOIL, dense and multi-vector retrieval over veterinary course content.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server.
		RunE: serve.RunE,
	}
	root.PersistentFlags().StringVar(&flags.env, "env", config.GetEnv(), "environment name selecting config/<env>.yaml")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "explicit config file path (overrides --env)")

	root.AddCommand(serve, newQueryCmd(flags), newVersionCmd())
	return root
}
