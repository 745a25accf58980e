package main

import (
	"github.com/spf13/cobra"
	"github.com/zulandar/concierge/internal/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chat endpoint and dashboard",
		Long:  "Connects to the database, seeds it if empty, and serves POST /chat plus the operations dashboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Concierge config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	a, logger, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.close()

	return server.Start(ctx, server.StartOpts{
		Opts: server.Opts{
			Router:             a.router,
			Backend:            a.store,
			AllowedOrigins:     cfg.Server.AllowedOrigins,
			RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
			RateLimitBurst:     cfg.Server.RateLimitBurst,
			HotelName:          cfg.Hotel.Name,
			Currency:           cfg.Hotel.Currency,
			Logger:             logger,
		},
		Port: cfg.Server.Port,
		Out:  cmd.OutOrStdout(),
	})
}
