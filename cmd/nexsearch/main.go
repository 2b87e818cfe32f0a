// Package main is the nexsearch CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nexventures/nexsearch/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// globalFlags are the root command's persistent flags.
type globalFlags struct {
	configPath string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "nexsearch",
		Short: "Product search for the marketplace catalog",
		Long:  "nexsearch corrects typos, matches products in phases, ranks them and serves the results over HTTP.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", defaultConfigPath(), "config file path")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(serveCmd(flags))
	root.AddCommand(searchCmd(flags))
	root.AddCommand(analyzeCmd(flags))
	root.AddCommand(importCmd(flags))
	root.AddCommand(statusCmd(flags))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the nexsearch version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "nexsearch %s\n", Version)
			return nil
		},
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".nexsearch", "config.yaml")
}

// loadConfig loads the config at path. When path is the default, a config.yaml
// in the current directory wins so the CLI picks up a project config during
// development. A missing default file yields the built-in defaults; a missing
// explicit file is an error. Returns the path actually loaded, or "" for defaults.
func loadConfig(path string) (*config.Config, string, error) {
	isDefault := path == defaultConfigPath()
	if isDefault {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				cfg, err := config.Load(local)
				return cfg, local, err
			}
		}
	}
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if isDefault && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), "", nil
	}
	return nil, "", err
}
