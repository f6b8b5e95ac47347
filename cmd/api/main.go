package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-marketplace-settlement/internal/config"
	"github.com/ariefcatur/go-marketplace-settlement/internal/httpx"
	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
	"github.com/ariefcatur/go-marketplace-settlement/internal/orders"
	"github.com/ariefcatur/go-marketplace-settlement/internal/payouts"
	"github.com/ariefcatur/go-marketplace-settlement/internal/postgres"
	"github.com/ariefcatur/go-marketplace-settlement/internal/redisx"
	"github.com/ariefcatur/go-marketplace-settlement/internal/sellers"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "marketplace-api",
		Usage: "marketplace order and payout settlement API",
		Before: func(*cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return cfg.ConfigureLogger()
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: func(*cli.Context) error { return serve() },
			},
			{
				Name:  "migrate",
				Usage: "apply the embedded schema migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "roll every migration back"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					return postgres.Migrate(cfg.PostgresDSN, c.Bool("down"))
				},
			},
		},
		DefaultCommand: "serve",
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("marketplace-api")
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
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

	// the producer outlives ctx so shutdown can flush it
	prodCtx, cancelProd := context.WithCancel(context.Background())
	defer cancelProd()
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(prodCtx)

	orderSvc := &orders.Service{
		Store:       &orders.PGStore{DB: db},
		Requests:    &redisx.RequestCache{Redis: rdb},
		Publisher:   prod,
		ServiceName: cfg.ServiceName,
	}
	engine := &payouts.Engine{
		Store:       &payouts.PGStore{DB: db},
		Locker:      &redisx.Locker{Redis: rdb},
		LockTTL:     cfg.PayoutLockTTL,
		Publisher:   prod,
		ServiceName: cfg.ServiceName,
	}
	sellerSvc := &sellers.Service{Store: &sellers.PGStore{DB: db}}

	limiter := &redisx.RateLimiter{Redis: rdb, Max: int64(cfg.RateLimitMax), Window: cfg.RateLimitWindow}
	router := httpx.NewRouter(cfg.RequestTimeout)
	(&httpx.OrdersHandler{Orders: orderSvc, PlaceLimit: httpx.RateLimit(limiter, "place_order")}).Register(router)
	(&httpx.PayoutsHandler{Payouts: engine}).Register(router)
	(&httpx.SellersHandler{Sellers: sellerSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "listen")
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	// handlers still running after a timed-out Shutdown get their publishes dropped
	prod.Close()
	prod.WaitClosed()
	return nil
}
