// Package command implements jetcoordd's cobra command tree: serve and
// version, wired with pflag-backed persistent flags the way the
// teacher's server binaries take their configuration.
package command

import (
	"github.com/spf13/cobra"
)

var configPath string

// Root returns jetcoordd's top-level command.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "jetcoordd",
		Short:         "jetcoord master-side job execution coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "jetcoordd.toml", "path to the coordinator's TOML config file")
	root.AddCommand(newServeCommand())
	root.AddCommand(newVersionCommand())
	return root
}
