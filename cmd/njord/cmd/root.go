/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "njord",
	Short: "Njord - durable supply-chain product tracker",
	Long: `Njord tracks physical goods through a supply chain as durable
records with monotonically increasing ids. Records survive restarts and
can be created, read, updated, deleted and listed from the CLI or over
the REST API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the store")
	rootCmd.PersistentFlags().String("backend", "log", "Storage backend: log or pebble")
}
