package cli

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the client version",
	// Skip config loading and session bootstrap.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		banner := figure.NewFigure("fleetcli", "cybermedium", true)
		banner.Print()
		fmt.Println()
		fmt.Printf("fleetcli %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
