package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/concierge/internal/config"
	"github.com/zulandar/concierge/internal/telegraph"
	discordadapter "github.com/zulandar/concierge/internal/telegraph/discord"
	slackadapter "github.com/zulandar/concierge/internal/telegraph/slack"
	"go.uber.org/zap"
)

func newTelegraphCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "telegraph",
		Aliases: []string{"tg"},
		Short:   "Run the chat platform bridge",
		Long: `Connects to Slack or Discord, answers guest messages through the concierge,
and posts new orders, service requests and a daily digest to the staff channel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTelegraph(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Concierge config file")
	return cmd
}

func runTelegraph(cmd *cobra.Command, configPath string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Telegraph.Platform == "" {
		return fmt.Errorf("telegraph: no platform configured in %s (add telegraph.platform)", configPath)
	}

	a, logger, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.close()

	adapter, err := createAdapter(cfg, logger)
	if err != nil {
		return err
	}

	daemon, err := telegraph.NewDaemon(telegraph.DaemonOpts{
		Adapter:      adapter,
		Chatter:      a.router,
		Backend:      a.store,
		GuestChannel: cfg.Telegraph.Channel,
		StaffChannel: cfg.Telegraph.StaffChannel,
		PollInterval: cfg.Telegraph.PollInterval,
		DigestCron:   cfg.Telegraph.DailyDigest,
		HotelName:    cfg.Hotel.Name,
		Currency:     cfg.Hotel.Currency,
		Logger:       logger,
		Out:          cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config, logger *zap.Logger) (telegraph.Adapter, error) {
	switch cfg.Telegraph.Platform {
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Telegraph.Slack.AppToken,
			BotToken:  cfg.Telegraph.Slack.BotToken,
			ChannelID: cfg.Telegraph.StaffChannel,
			Logger:    logger,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Telegraph.Discord.BotToken,
			ChannelID: cfg.Telegraph.StaffChannel,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("telegraph: unsupported platform %q", cfg.Telegraph.Platform)
	}
}
