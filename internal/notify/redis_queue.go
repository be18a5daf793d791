package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisQueue implements Queue on a Redis list. LPUSH on the producer side,
// BRPOP on the consumer side, so jobs are delivered in FIFO order and survive
// API restarts.
type redisQueue struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisQueue connects to Redis and returns a durable job queue.
func NewRedisQueue(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	logger = logger.With().Str("component", "redis_queue").Logger()
	logger.Info().Str("address", cfg.Address).Str("queue_key", cfg.QueueKey).Msg("redis queue initialised")

	return &redisQueue{
		client: client,
		key:    cfg.QueueKey,
		logger: logger,
	}, nil
}

func (q *redisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// Dequeue blocks on BRPOP with a short timeout so context cancellation is
// noticed within a second.
func (q *redisQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				default:
					continue
				}
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to dequeue job: %w", err)
		}

		// BRPop returns [key, value].
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			q.logger.Error().Err(err).Msg("dropping malformed job payload")
			continue
		}
		return &job, nil
	}
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}
