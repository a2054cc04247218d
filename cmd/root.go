// Package cmd defines the CLI commands for the render-gateway executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/render-gateway/internal/config"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	cfgFile string
	envFile string
}

// loadConfig reads the dotenv file first so its values can feed Viper's
// environment lookups.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "render-gateway",
		Short: "Crawler-aware rendering gateway for a single-page storefront.",
		Long: `render-gateway sits in front of a client-rendered storefront. Browsers are
proxied to the origin untouched; link-preview and search crawlers asking for a
product page get the application shell with server-side product metadata.`,
		SilenceUsage: true,
		Version:      Version,
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default .env when present)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newPreviewCmd(opts))
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
