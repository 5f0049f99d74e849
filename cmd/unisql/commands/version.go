package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/unisql/internal/version"
)

// newVersionCommand creates the version command.
func newVersionCommand(a *App) *cobra.Command {
	var (
		short   bool
		require string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display version information for the unisql CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if require != "" {
				ok, err := info.Satisfies(require)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("unisql %s does not satisfy %q", info.Version, require)
				}
			}
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), info.Version)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print the version number only")
	cmd.Flags().StringVar(&require, "require", "", "fail unless the version satisfies a constraint, e.g. \">= 0.1\"")
	return cmd
}
