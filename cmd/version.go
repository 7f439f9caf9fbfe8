package cmd

import (
	"fmt"

	"aggfiles/pkg/version"

	"github.com/spf13/cobra"
)

// versionCmd prints package and build metadata. The --short flag
// restricts output to the bare version number.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version of aggfiles",
	Long:  `Display the version, build metadata, and platform information of the aggfiles CLI tool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		short, err := cmd.Flags().GetBool("short")
		if err != nil {
			return fmt.Errorf("error reading flags: %w", err)
		}

		v := version.Get()
		if short {
			fmt.Println(v.Version)
		} else {
			fmt.Println(v.String())
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolP("short", "s", false, "Print the version number only")
	RootCmd.AddCommand(versionCmd)
}
