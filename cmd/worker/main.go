package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-marketplace-settlement/internal/config"
	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
	"github.com/ariefcatur/go-marketplace-settlement/internal/orders"
	"github.com/ariefcatur/go-marketplace-settlement/internal/postgres"
	"github.com/ariefcatur/go-marketplace-settlement/internal/redisx"
	"github.com/ariefcatur/go-marketplace-settlement/internal/sellers"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "marketplace-worker",
		Usage: "refresh seller stats from seller order status events",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Usage: "override WORKER_COUNT"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("marketplace-worker")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ConfigureLogger(); err != nil {
		return err
	}
	if n := c.Int("workers"); n > 0 {
		cfg.WorkerCount = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	refresher := &sellers.StatsRefresher{
		Store: &sellers.PGStore{DB: db},
		Dedup: &redisx.Dedup{Redis: rdb, Service: cfg.ServiceName + "-worker"},
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, orders.TopicSellerOrderStatus, cfg.WorkerCount)

	log.WithFields(log.Fields{
		"group":   cfg.WorkerGroup,
		"topic":   orders.TopicSellerOrderStatus,
		"workers": cfg.WorkerCount,
	}).Info("stats consumer started")
	err = cons.Start(ctx, refresher.HandleStatusChanged)
	log.Info("stats consumer stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}
