// Command walletctl runs maintenance tasks against the wallet cache and the sync outbox.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/agency-crm/backend/config"
	"github.com/agency-crm/backend/internal/infra/cache"
	"github.com/agency-crm/backend/internal/infra/db"
	"github.com/agency-crm/backend/internal/infra/dependency"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&verifyCmd{}, "wallets")
	commander.Register(&verifyCmd{repair: true}, "wallets")
	commander.Register(&outboxCmd{}, "outbox")
	commander.Register(&requeueCmd{}, "outbox")
	commander.Register(&pruneCmd{}, "outbox")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openInjector connects to the configured stores without a sync transport.
// The returned func releases the connections.
func openInjector(ctx context.Context) (*dependency.Injector, func(), error) {
	cfg := config.Load()
	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var gormDB *gorm.DB
	database, err := db.NewConnection(&cfg.Database)
	if err != nil {
		slog.Warn("Database unavailable", "error", err)
	} else {
		if err := database.AutoMigrate(&model.KVEntryModel{}, &model.SyncJobModel{}); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
		gormDB = database.DB()
		closers = append(closers, func() { _ = database.Close() })
	}

	var redisClient *redis.Client
	if cfg.LocalStore.Backend != dependency.StoreBackendSQL {
		redisClient, err = cache.Connect(ctx, &cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable", "error", err)
			redisClient = nil
		} else {
			closers = append(closers, func() { _ = redisClient.Close() })
		}
	}

	injector, err := dependency.NewInjector(cfg, gormDB, redisClient, nil)
	if err != nil {
		release()
		return nil, nil, err
	}
	return injector, release, nil
}
