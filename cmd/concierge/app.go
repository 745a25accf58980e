package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zulandar/concierge/internal/classifier"
	"github.com/zulandar/concierge/internal/concierge"
	"github.com/zulandar/concierge/internal/config"
	"github.com/zulandar/concierge/internal/db"
	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultConfigPath = "concierge.yaml"

// loadConfig reads the config file. A missing file at the default path
// falls back to built-in defaults so a fresh checkout runs as-is.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return nil, fmt.Errorf("load config: %w", err)
}

// newLogger builds the process logger from the --debug flag.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// openDatabase connects, migrates and seeds the configured database.
func openDatabase(cfg *config.Config, out io.Writer) (*gorm.DB, error) {
	if err := db.EnsureDatabase(cfg.Database); err != nil {
		return nil, err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	rooms, err := db.SeedRooms(gormDB, cfg.Hotel.SeedRooms)
	if err != nil {
		return nil, err
	}
	items, err := db.SeedMenu(gormDB)
	if err != nil {
		return nil, err
	}
	if rooms > 0 || items > 0 {
		fmt.Fprintf(out, "Seeded %d rooms and %d menu items\n", rooms, items)
	}
	return gormDB, nil
}

// app is everything a guest-facing command needs.
type app struct {
	store  *store.Store
	router *concierge.Router
	// close releases background resources (sweeper, redis client).
	close func()
}

// buildApp wires the store, dialogue machine, handlers, optional
// classifier and session store into a router.
func buildApp(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, logger *zap.Logger) (*app, error) {
	st, err := store.New(gormDB)
	if err != nil {
		return nil, err
	}
	rooms := dialogue.RoomRange{Min: cfg.Hotel.RoomMin, Max: cfg.Hotel.RoomMax}

	machine, err := dialogue.NewMachine(dialogue.MachineOpts{
		Backend:          st,
		CatalogThreshold: cfg.Routing.CatalogThreshold,
		Rooms:            rooms,
		Currency:         cfg.Hotel.Currency,
	})
	if err != nil {
		return nil, err
	}
	frontDesk, err := concierge.NewFrontDesk(concierge.FrontDeskOpts{
		Backend:    st,
		Rooms:      rooms,
		CheckIn:    cfg.Hotel.CheckIn,
		CheckOut:   cfg.Hotel.CheckOut,
		Facilities: cfg.Hotel.Facilities,
	})
	if err != nil {
		return nil, err
	}
	housekeeping, err := concierge.NewHousekeeping(concierge.HousekeepingOpts{
		Backend:     st,
		Rooms:       rooms,
		DefaultRoom: cfg.Hotel.HousekeepingDefaultRoom,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	var clf classifier.Classifier
	if cfg.Classifier.Enabled {
		g, err := classifier.NewGemini(ctx, classifier.GeminiOpts{
			APIKey: cfg.Classifier.APIKey,
			Model:  cfg.Classifier.Model,
			Logger: logger,
		})
		if err != nil {
			logger.Warn("intent classifier disabled", zap.Error(err))
		} else {
			clf = g
		}
	}

	sessions, closeSessions, err := buildSessions(ctx, cfg.Sessions)
	if err != nil {
		return nil, err
	}

	router, err := concierge.NewRouter(concierge.RouterOpts{
		Sessions:          sessions,
		Dialogue:          machine,
		FrontDesk:         frontDesk,
		Housekeeping:      housekeeping,
		Classifier:        clf,
		KeywordThreshold:  cfg.Routing.KeywordThreshold,
		ClassifierTimeout: cfg.Routing.ClassifierTimeout,
		Logger:            logger,
	})
	if err != nil {
		closeSessions()
		return nil, err
	}
	return &app{store: st, router: router, close: closeSessions}, nil
}

// buildSessions returns the configured dialogue session store and a func
// that stops its background work.
func buildSessions(ctx context.Context, cfg config.SessionsConfig) (dialogue.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		rs, err := dialogue.NewRedisStore(dialogue.RedisStoreOpts{
			Client:    client,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.IdleTimeout,
		})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return rs, func() { client.Close() }, nil
	default:
		ms := dialogue.NewMemoryStore(cfg.IdleTimeout)
		sweepCtx, cancel := context.WithCancel(ctx)
		go ms.RunSweeper(sweepCtx, cfg.SweepInterval)
		return ms, cancel, nil
	}
}

// openApp is the common path for guest-facing commands: logger, database
// and router.
func openApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*app, *zap.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	gormDB, err := openDatabase(cfg, cmd.OutOrStdout())
	if err != nil {
		return nil, nil, err
	}
	a, err := buildApp(ctx, cfg, gormDB, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
