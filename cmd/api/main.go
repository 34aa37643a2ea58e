package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/minjae-dev/gomarket/internal/auth"
	"github.com/minjae-dev/gomarket/internal/cart"
	"github.com/minjae-dev/gomarket/internal/catalog"
	"github.com/minjae-dev/gomarket/internal/checkout"
	"github.com/minjae-dev/gomarket/internal/config"
	"github.com/minjae-dev/gomarket/internal/httpx"
	kafkax "github.com/minjae-dev/gomarket/internal/kafka"
	"github.com/minjae-dev/gomarket/internal/logging"
	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/payment"
	"github.com/minjae-dev/gomarket/internal/postgres"
	"github.com/minjae-dev/gomarket/internal/redisx"
	"github.com/minjae-dev/gomarket/internal/sequence"
	"github.com/minjae-dev/gomarket/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logging.New(cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB (counters are provisioned by migration, never at runtime)
	if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pDone := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCompleted, 1024, log)
	pDone.Start(ctx)
	pCancel := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCanceled, 1024, log)
	pCancel.Start(ctx)

	// Repos & services
	seq := &sequence.Repo{DB: db}
	products := &catalog.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	orders := &checkout.OrdersRepo{DB: db}

	authSvc := &auth.Service{
		Users:    &auth.UsersRepo{DB: db},
		Seq:      seq,
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
		Log:      log,
	}
	catalogSvc := &catalog.Service{Store: products, Seq: seq, Log: log}
	pipeline := &checkout.Pipeline{
		Stock: &stock.Repo{DB: db},
		Gateway: &payment.HTTPGateway{
			URL:        cfg.GatewayURL,
			MerchantID: cfg.MerchantID,
			Timeout:    cfg.PaymentTimeout,
		},
		Orders:       orders,
		Seq:          seq,
		Cart:         cartRepo,
		CompletedPub: pDone,
		CanceledPub:  pCancel,
		Service:      cfg.ServiceName,
		Log:          log,
	}

	metrics := httpx.NewMetrics(prometheus.DefaultRegisterer)
	router := httpx.NewRouter(metrics)
	h := &httpx.Handler{
		Auth:     authSvc,
		Catalog:  catalogSvc,
		Products: products,
		Cart:     cartRepo,
		Reader:   &cart.Reader{Entries: cartRepo, Products: products},
		Pipeline: pipeline,
		Orders:   orders,
		Redis:    rdb,
		Metrics:  metrics,
		Log:      log,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pDone.Close()
	pCancel.Close()
	pDone.WaitClosed()
	pCancel.WaitClosed()
}
