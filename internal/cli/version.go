package cli

import (
	"github.com/Harshitk-cp/timely/internal/buildconfig"
	"github.com/spf13/cobra"
)

type versionResult map[string]string

func (v versionResult) Lines() []string {
	return []string{"timelyctl " + buildconfig.String()}
}

func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return output{format: rootOpts.Format, w: cmd.OutOrStdout()}.write(versionResult(buildconfig.VersionInfo()))
		},
	}
}
