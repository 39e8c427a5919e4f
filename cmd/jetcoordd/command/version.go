package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion and buildCommit are set via -ldflags at release build time;
// for local builds they default to "dev" and "unknown".
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print jetcoordd's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("jetcoordd %s (%s)\n", buildVersion, buildCommit)
			return nil
		},
	}
}
