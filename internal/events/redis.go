package events

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisSink публикует сообщения в канал Redis pub/sub вместо локального хаба.
// Все процессы, подписанные через RedisRelay, доставят сообщение своим подписчикам.
type RedisSink struct {
	redisClient *redis.Client
	channel     string
	logger      *logrus.Logger
}

// NewRedisSink создает новый RedisSink
func NewRedisSink(client *redis.Client, channel string, logger *logrus.Logger) *RedisSink {
	return &RedisSink{
		redisClient: client,
		channel:     channel,
		logger:      logger,
	}
}

// Broadcast публикует payload в канал Redis
func (s *RedisSink) Broadcast(ctx context.Context, payload []byte) {
	if err := s.redisClient.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.WithError(err).WithField("channel", s.channel).Error("Failed to publish event to Redis")
	}
}

// RedisRelay читает сообщения из канала Redis и передает их локальному хабу
type RedisRelay struct {
	redisClient *redis.Client
	channel     string
	sink        Sink
	logger      *logrus.Logger
}

// NewRedisRelay создает новый RedisRelay
func NewRedisRelay(client *redis.Client, channel string, sink Sink, logger *logrus.Logger) *RedisRelay {
	return &RedisRelay{
		redisClient: client,
		channel:     channel,
		sink:        sink,
		logger:      logger,
	}
}

// Start подписывается на канал и запускает горутину пересылки
func (r *RedisRelay) Start(ctx context.Context) error {
	pubsub := r.redisClient.Subscribe(ctx, r.channel)
	// Receive дожидается подтверждения подписки
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}

	r.logger.WithField("channel", r.channel).Info("Starting Redis event relay...")
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Stopping Redis event relay.")
				return
			case msg, ok := <-ch:
				if !ok {
					r.logger.Warn("Redis subscription channel closed")
					return
				}
				r.sink.Broadcast(ctx, []byte(msg.Payload))
			}
		}
	}()
	return nil
}
