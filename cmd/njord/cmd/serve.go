/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/njord/pkg/api"
	"github.com/ssargent/njord/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the Njord REST API server exposing the tracking operations.

The server loads its configuration from the config file created by
'njord init'; individual settings can be overridden with flags.

Examples:
  njord serve
  njord serve --config ./njord.yaml --port 9200
  njord serve --api-key=mysecretkey --data-dir=./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		var cfg *config.Config
		if config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}

		// Flags override the file.
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
		}
		if cmd.Flags().Changed("backend") {
			cfg.Storage.Backend, _ = cmd.Flags().GetString("backend")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if cfg.APIKey == "" || cfg.APIKey == "auto" {
			return fmt.Errorf("no API key configured; run 'njord init' or pass --api-key")
		}

		logger, err := newLogger(cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		a, err := openApp(cfg.DataDir, cfg.Storage.Backend)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Recovery != nil && a.Recovery.TruncatedBytes > 0 {
			logger.Warn("recovered from torn write",
				zap.Int64("truncated_bytes", a.Recovery.TruncatedBytes),
				zap.Int64("entries_replayed", a.Recovery.EntriesReplayed),
			)
		}

		server := api.NewServer(a.Tracker, api.ServerConfig{
			Bind:   cfg.Bind,
			Port:   cfg.Port,
			APIKey: cfg.APIKey,
		}, logger)
		return server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to the config file")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key protecting the REST API")
}
