// Command nurseryctl runs maintenance tasks against the nursery database.
//
//	nurseryctl migrate [-down N] [-version]
//	nurseryctl backfill-groups
//	nurseryctl seed [-plants N] [-orders N] [-legacy N] [-messages N] [-seed S]
//	nurseryctl orders [-status Pending|Confirmed|Delivered] [-limit N]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/migrations"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/seed"
	"github.com/greenleaf-nursery/nursery-api/services"
	"github.com/greenleaf-nursery/nursery-api/store"
)

var logger = log.New(os.Stderr, "[nurseryctl] ", log.LstdFlags|log.LUTC|log.Lshortfile)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nurseryctl <migrate|backfill-groups|seed|orders> [flags]")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		err = runMigrate(ctx, cfg, args)
	case "backfill-groups":
		err = runBackfill(ctx, cfg, args)
	case "seed":
		err = runSeed(ctx, cfg, args)
	case "orders":
		err = runOrders(ctx, cfg, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("%s: %v", cmd, err)
	}
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if err := config.ConnectDatabase(cfg); err != nil {
		return nil, err
	}
	return store.New(config.GetDB()), nil
}

func runMigrate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	down := fs.Int("down", 0, "roll back this many migrations instead of migrating up")
	version := fs.Bool("version", false, "print the applied schema version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.DBDriver != "postgres" {
		if *down > 0 || *version {
			return fmt.Errorf("versioned migrations are only kept for postgres, DB_DRIVER is %s", cfg.DBDriver)
		}
		if err := config.ConnectDatabase(cfg); err != nil {
			return err
		}
		logger.Printf("auto-migrating %s schema", cfg.DBDriver)
		return config.GetDB().WithContext(ctx).AutoMigrate(models.All()...)
	}

	runner, err := migrations.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	switch {
	case *version:
		v, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
		return nil
	case *down > 0:
		return runner.Down(*down)
	default:
		return runner.Up()
	}
}

func runBackfill(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backfill-groups", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	result, err := services.BackfillOrderGroups(ctx, s, logger)
	if err != nil {
		return err
	}
	fmt.Printf("grouped %d legacy line(s) into %d order(s)\n", result.Lines, result.Orders)
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	plants := fs.Int("plants", 24, "number of plants to create")
	orders := fs.Int("orders", 40, "number of grouped orders to create")
	legacy := fs.Int("legacy", 10, "number of orders to create without a group id")
	messages := fs.Int("messages", 12, "number of contact messages to create")
	fakerSeed := fs.Uint64("seed", 0, "faker seed, 0 for random")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed a production database")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	result, err := seed.Apply(ctx, s, seed.Config{
		Plants:       *plants,
		Orders:       *orders,
		LegacyOrders: *legacy,
		Messages:     *messages,
		Seed:         *fakerSeed,
	}, logger)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d plant(s), %d order line(s), %d message(s)\n", result.Plants, result.OrderLines, result.Messages)
	return nil
}

func runOrders(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	status := fs.String("status", "", "only show orders with this status")
	limit := fs.Int("limit", 0, "show at most this many orders, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filter models.OrderStatus
	if *status != "" {
		parsed, err := models.ToOrderStatus(*status)
		if err != nil {
			return err
		}
		filter = parsed
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	orders, err := services.NewOrderService(s, logger).List(ctx, filter)
	if err != nil {
		return err
	}
	if *limit > 0 && len(orders) > *limit {
		orders = orders[:*limit]
	}

	notifier := services.NewNotificationService(cfg.Currency(), nil)
	return writeOrderReport(os.Stdout, orders, notifier.FormatAmount)
}
