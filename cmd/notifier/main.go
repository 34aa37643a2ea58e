package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/minjae-dev/gomarket/internal/config"
	kafkax "github.com/minjae-dev/gomarket/internal/kafka"
	"github.com/minjae-dev/gomarket/internal/logging"
	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/redisx"
)

const consumerGroup = "notifier"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logging.New("market-notifier")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	n := &notifier{rdb: rdb, log: log}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c := kafkax.NewConsumer(cfg.KafkaBrokers, consumerGroup, market.TopicOrderCanceled, 2, log)
		if err := c.Start(ctx, n.handle); err != nil {
			log.Error("consumer stopped", zap.Error(err))
			cancel()
		}
	}()

	c := kafkax.NewConsumer(cfg.KafkaBrokers, consumerGroup, market.TopicOrderCompleted, 4, log)
	if err := c.Start(ctx, n.handle); err != nil {
		log.Error("consumer stopped", zap.Error(err))
	}
	cancel()
	<-done
}

type notifier struct {
	rdb *redis.Client
	log *zap.Logger
}

func (n *notifier) handle(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		n.log.Warn("bad envelope, skipping", zap.Error(err))
		return nil
	}

	// At-least-once delivery: drop replays by event id.
	key := fmt.Sprintf(redisx.KeyDedup, consumerGroup, env.EventID)
	fresh, err := n.rdb.SetNX(ctx, key, 1, redisx.TTLDedup).Result()
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if !fresh {
		return nil
	}

	switch env.EventType {
	case market.EventOrderCompleted:
		p, err := kafkax.UnwrapPayload[market.OrderCompletedPayload](env.Payload)
		if err != nil {
			return err
		}
		n.log.Info("order completed, notifying buyer and sellers",
			zap.Int64("order_id", p.OrderID),
			zap.Int64("buyer_id", p.BuyerID),
			zap.Int64("total_amount", p.TotalAmount),
			zap.Int("items", len(p.Items)))
	case market.EventOrderCanceled:
		p, err := kafkax.UnwrapPayload[market.OrderCanceledPayload](env.Payload)
		if err != nil {
			return err
		}
		n.log.Info("order canceled, notifying buyer",
			zap.Int64("order_id", p.OrderID),
			zap.Int64("buyer_id", p.BuyerID))
	default:
		n.log.Warn("unknown event type", zap.String("event_type", env.EventType))
	}
	return nil
}
