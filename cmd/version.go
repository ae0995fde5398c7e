package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"promptpack/pkg/version"
)

// newVersionCmd displays the version of promptpack.
// The --short flag prints only the version number.
func newVersionCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "version",
		Short: "Display the version of promptpack",
		Long:  `Display the current version information of the promptpack CLI tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return fmt.Errorf("error reading flags: %w", err)
			}

			v := version.Get()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), v.Version)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			return nil
		},
	}
	c.Flags().BoolP("short", "s", false, "Print the version number only")
	return c
}
