package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clipway/pkg/cache"
	"clipway/pkg/config"
	"clipway/pkg/logger"
	"clipway/pkg/queue"
)

// Consumes video.published audit events and maintains publish counters in
// Redis. Failed events are requeued by the consumer.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		panic(err)
	}
	defer queueClient.Close()

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v (counters disabled)", err)
		redisClient = nil
	}

	err = queueClient.ConsumeVideoEvents(func(event map[string]interface{}) error {
		videoID, _ := event["video_id"].(string)
		ownerID, _ := event["owner_id"].(string)
		log.Info("Video %s published by user %s", videoID, ownerID)

		if redisClient != nil {
			ctx := context.Background()
			if err := redisClient.Incr(ctx, "stats:videos_published").Err(); err != nil {
				return fmt.Errorf("failed to update publish counter: %w", err)
			}
			if ownerID != "" {
				redisClient.Incr(ctx, fmt.Sprintf("stats:videos_published:%s", ownerID))
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to start consumer: %v", err)
		panic(err)
	}

	log.Info("Audit consumer started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Audit consumer exited")
}
