/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/njord/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Njord for local use",
	Long: `Initialize Njord: create the configuration file with a freshly
generated API key and point it at the data directory.

Examples:
  njord init
  njord init --data-dir=./data --config=./njord.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
		}

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			return err
		}

		cmd.Printf("Initialized Njord\n")
		cmd.Printf("Config:   %s\n", configPath)
		cmd.Printf("Data dir: %s\n", cfg.DataDir)
		cmd.Printf("API key:  %s\n", cfg.APIKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("config", "", "Path to write the config file")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
