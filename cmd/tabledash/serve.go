package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		apiURL     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the table server",
		Long: `Start the HTTP server that renders the people table and keeps
connected browsers live over a WebSocket.

Settings are read from tabledash.json, then TABLEDASH_PORT and
TABLEDASH_API_URL, then the flags below.

Examples:
  tabledash serve
  tabledash serve --port=8080
  tabledash serve --api-url=http://localhost:9000/api/v1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("api-url") {
				cfg.API.BaseURL = apiURL
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			srv, err := newServer(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			success("Serving on http://%s", cfg.Address())
			logger.Info("configuration loaded",
				"address", cfg.Address(),
				"api", cfg.API.BaseURL,
				"filter_mode", cfg.Table.FilterMode,
				"history", cfg.Table.History,
				"metrics", cfg.Metrics.Enabled,
			)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ./tabledash.json)")
	cmd.Flags().StringVar(&host, "host", "", "Server host")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Server port")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Users API base URL")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	return cmd
}
