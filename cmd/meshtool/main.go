// meshtool - inspect, render and fetch 3D models from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "meshtool",
		Short:        "Inspect, render and fetch 3D models",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if g.debug {
				level = "debug"
			}
			return logger.Init(level, "")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config file (YAML or TOML)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newInfoCmd(),
		newRenderCmd(g),
		newFetchCmd(),
		newGenerateCmd(g),
	)
	return root
}

// loadConfig reads the --config file over the defaults.
func (g *globals) loadConfig() (*config.Config, error) {
	path, err := homedir.Expand(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
