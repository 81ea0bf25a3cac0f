package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version = "0.1.0"

	flagConfig string
	flagPort   string
)

var rootCmd = &cobra.Command{
	Use:   "hub",
	Short: "hub - SEKAI Hub web client",
	Long:  "hub serves the SEKAI Hub dashboard. It signs users in against the identity provider with the authorization code flow and PKCE, and shows their data from the hub API.\n\nRun 'hub serve' to start the server.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hub %s\n", Version)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file (environment variables take precedence)")
	serveCmd.Flags().StringVar(&flagPort, "port", "", "Port to bind the HTTP server (overrides PORT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}
