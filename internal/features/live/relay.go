package live

import (
	"context"
	"encoding/json"

	"github.com/hicham-zad/pikonote-backend/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Channel carries live events between instances.
const Channel = "votesession:events"

// RedisRelay publishes events to Redis; every instance, this one included,
// receives them on its subscription and delivers to local subscribers.
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	logger *zap.Logger
}

func NewRedisRelay(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, hub: hub, logger: logger.Named("relay")}
}

func (r *RedisRelay) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, Channel, payload).Err(); err != nil {
		// Keep local clients current even when Redis is unreachable.
		r.hub.Deliver(event)
		return err
	}
	return nil
}

// Run forwards relayed events to the hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.logger.Warn("dropping malformed live event", zap.Error(err))
		return
	}
	r.hub.Deliver(event)
}

// NewPublisher returns the hub itself, or a Redis relay when REDIS_URL is
// set. The relay's subscription follows the fx lifecycle.
func NewPublisher(lc fx.Lifecycle, cfg *config.Config, hub *Hub, logger *zap.Logger) (Publisher, error) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return nil
		},
	})

	if cfg.RedisURL == "" {
		return hub, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	relay := NewRedisRelay(client, hub, logger)

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				cancel()
				return err
			}
			go relay.Run(runCtx)
			logger.Info("live events relayed through redis", zap.String("channel", Channel))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return client.Close()
		},
	})

	return relay, nil
}
