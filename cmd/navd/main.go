// navd runs the navigation daemon: a Telegram bot whose screens are
// driven by the stateful renderer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatnav/chatnav/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "navd",
	Short:        "Stateful multi-screen chat navigation daemon",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("navd %s\n", version.GetInfo())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config TOML")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
