package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/mlodi/backend/internal/services/engagement"
)

// RedisNotifier publishes engagement notifications to Redis pub/sub
// channels. The real-time transport subscribes and handles delivery to
// clients; a failed publish is logged and dropped, never retried.
type RedisNotifier struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisNotifier creates a notifier backed by the given Redis client
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, ctx: context.Background()}
}

// Notify implements engagement.Notifier
func (n *RedisNotifier) Notify(notification engagement.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("Error marshaling notification: %v", err)
		return
	}

	channel := fmt.Sprintf("engagement:notifications:%s", notification.UserID)
	if err := n.client.Publish(n.ctx, channel, payload).Err(); err != nil {
		log.Printf("Error publishing notification to %s: %v", channel, err)
	}
}
